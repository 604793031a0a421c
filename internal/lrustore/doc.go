// Package lrustore 提供 xlru 使用的 LRU 有序存储结构。
//
// Store 由 github.com/hashicorp/golang-lru/v2/simplelru 提供的双向链表 + map
// 承载最近使用顺序与 key 索引，在其上叠加两类容量约束：
//
//   - 条目数上限：新 key 插入前若已满，淘汰链表尾部（最久未使用）条目
//   - 内存上限：新 key 插入前循环淘汰尾部条目，直到新条目可以放下
//
// 覆盖已有 key 只替换条目本身并移动到头部，不会淘汰任何其他条目。
//
// # 过期语义
//
// Store 不解释过期字段的含义，Get 不检查过期；过期判断由 Entry.IsExpired 提供，
// Store 只暴露 ExpiredKeys 查询（不改变最近使用顺序）。
//
// # 并发
//
// Store 内部使用 sync.Mutex 保护链表：Get 会移动节点，即使调用方持有的是共享锁，
// 链表修改也必须互斥。Entry 的最后访问时间使用原子变量，允许调用方在
// Store 锁外读取过期状态。
package lrustore
