package routes

import (
	"debatehub/controllers"

	"github.com/gin-gonic/gin"
)

func CreateDebateRouteHandler(ctx *gin.Context) {
	controllers.CreateDebate(ctx)
}

func JoinDebateRouteHandler(ctx *gin.Context) {
	controllers.JoinDebate(ctx)
}

func ObserveDebateRouteHandler(ctx *gin.Context) {
	controllers.ObserveDebate(ctx)
}

func GetRoomRouteHandler(ctx *gin.Context) {
	controllers.GetRoom(ctx)
}

func EndDebateRouteHandler(ctx *gin.Context) {
	controllers.EndDebate(ctx)
}

func GetDebateDetailsRouteHandler(ctx *gin.Context) {
	controllers.GetDebateDetails(ctx)
}

func AnalyzeDebateRouteHandler(ctx *gin.Context) {
	controllers.AnalyzeDebate(ctx)
}

func GetHistoryRouteHandler(ctx *gin.Context) {
	controllers.GetHistory(ctx)
}
