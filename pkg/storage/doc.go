// Package storage 提供数据存储相关的子包。
//
// 子包列表：
//   - xlru: 进程内 LRU 缓存，条目数与内存双重上限，绝对/滑动过期，后台清理
package storage
