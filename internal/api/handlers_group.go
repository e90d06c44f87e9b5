package api

import "Birdfeed/internal/api/handler"

// HandlersGroup 封装了所有已初始化的 Handler 实例
type HandlersGroup struct {
	FeedHandler  *handler.FeedHandler
	AdminHandler *handler.AdminHandler
}
