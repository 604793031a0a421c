// Package util 提供通用工具相关的子包。
//
// 子包列表：
//   - xrwlock: 带超时与关闭唤醒的读写锁，写者排队时阻止新的读者
package util
