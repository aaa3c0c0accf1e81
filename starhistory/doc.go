// Package starhistory 是 star-history 服务的客户端。
//
// 服务提供两个接口：
//   - GET /api/star?repo=&token=                 返回仓库的 star 历史（JSON）
//   - GET /api/chart?repo=&token=&type=&format=  返回渲染好的图表（svg 或 png）
//
// 每个操作有两种形式：
//   - FetchStarHistory / FetchChart 返回结果或 *Error，错误按 Kind 区分
//     （参数错误、传输失败、非 2xx、解码失败、内容类型不符、写文件失败）
//   - GetStarHistory / GetChart 记录日志后返回空结果 / false，从不返回错误
//
// Client 构造后只持有不可变配置，可以被多个 goroutine 并发使用。
package starhistory
