package utils

import (
	"net/url"
	"strings"
)

// Sitename 从 URL 中提取站点域名（去掉 www. 前缀），
// 解析失败或为空时返回 ""
func Sitename(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.ToLower(u.Host)
	host = strings.TrimPrefix(host, "www.")
	// 去掉端口
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	return host
}

// HasImageExt 判断 URL 是否以常见图片后缀结尾
func HasImageExt(raw string) bool {
	u := strings.ToLower(raw)
	// 忽略 query 部分
	if i := strings.IndexByte(u, '?'); i >= 0 {
		u = u[:i]
	}
	return strings.HasSuffix(u, ".png") ||
		strings.HasSuffix(u, ".jpg") ||
		strings.HasSuffix(u, ".jpeg")
}
