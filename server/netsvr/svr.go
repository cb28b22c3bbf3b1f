package netsvr

import (
	"net/http"

	"github.com/zintix-labs/wdmlab/server/app"
)

// NetSvr 可啟停的 HTTP 服務：路由註冊加上 app.Component 的生命週期。
// 只有 server.RunWithSvr 需要這個完整介面。
type NetSvr interface {
	NetRouter
	app.Component
}

// NetRouter 只含路由註冊，api 套件拿到的是這一層，碰不到 Run / Shutdown。
//
// 抽樣 API 只有讀取（GET）與提交計算（POST）兩類端點。
type NetRouter interface {
	Use(middleware func(http.Handler) http.Handler)
	Get(path string, h http.HandlerFunc)
	Post(path string, h http.HandlerFunc)
	// Group 以共同前綴掛一組路由，例如 /v1
	Group(path string, fn func(NetRouter))
}
