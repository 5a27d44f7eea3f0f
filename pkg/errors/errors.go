package errors

import "errors"

// 刷新管线与缓存读取的错误分类，调用方用 errors.Is 判断
var (
	// ErrNotConfigured 请求的课表名未配置
	ErrNotConfigured = errors.New("课表未配置")
	// ErrTransport 远端存储不可达或返回错误
	ErrTransport = errors.New("远端存储访问失败")
	// ErrVerification 下载的文件未通过结构校验
	ErrVerification = errors.New("课表文件校验未通过")
	// ErrParse 工作簿无法打开或解析
	ErrParse = errors.New("课表解析失败")
	// ErrPersist 缓存写入失败
	ErrPersist = errors.New("缓存写入失败")
	// ErrCacheRead 缓存文件缺失或损坏
	ErrCacheRead = errors.New("缓存读取失败")
	// ErrNoSource 下载失败且本地没有任何可用文件
	ErrNoSource = errors.New("没有可用的课表文件")
)
