package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/tariqtharwat-OPS/ocean-pearl-ops-sub001/middlewares"
	"github.com/tariqtharwat-OPS/ocean-pearl-ops-sub001/models"
	"github.com/tariqtharwat-OPS/ocean-pearl-ops-sub001/utils"
	"github.com/tariqtharwat-OPS/ocean-pearl-ops-sub001/workflow"
)

// RegisterRoutes mounts the ledger API on r. Every /v1 route needs an actor.
func RegisterRoutes(r gin.IRouter, engine *workflow.Engine, logger *logrus.Logger) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/v1", middlewares.ActorMiddleware())

	ops := v1.Group("/operations")
	ops.POST("/receive", operationHandler(logger, engine.Receive))
	ops.POST("/produce", operationHandler(logger, engine.Produce))
	ops.POST("/transfer", operationHandler(logger, engine.Transfer))
	ops.POST("/sale", operationHandler(logger, engine.Sell))
	ops.POST("/waste-sale", operationHandler(logger, engine.SellWaste))
	ops.POST("/settlement", operationHandler(logger, engine.SettleInvoice))
	ops.POST("/fisher-payment", operationHandler(logger, engine.PayFisher))
	ops.POST("/funding", operationHandler(logger, engine.Fund))
	ops.POST("/expense", operationHandler(logger, engine.Expense))

	v1.GET("/periods", listPeriodsHandler(logger, engine))
	v1.GET("/periods/:id", getHandler(logger, engine.GetPeriod))
	v1.POST("/periods/:id/close", closePeriodHandler(logger, engine))

	v1.GET("/ledger-entries/:id", getHandler(logger, engine.GetLedgerEntry))
	v1.GET("/lots", listLotsHandler(logger, engine))
	v1.GET("/lots/:id", getHandler(logger, engine.GetLot))
	v1.GET("/lots/:id/trace", getHandler(logger, engine.TraceLot))
	v1.GET("/invoices/:id", getHandler(logger, engine.GetInvoice))
	v1.GET("/accounts/:account/balance", accountBalanceHandler(logger, engine))
}

// operationHandler binds the JSON body, stamps the authenticated actor over
// whatever the body claims and posts it. First posts answer 201, replays 200.
func operationHandler[T any, PT interface {
	*T
	Header() *workflow.RequestHeader
}](logger *logrus.Logger, post func(context.Context, PT) (*workflow.OperationResult, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := PT(new(T))
		if err := c.ShouldBindJSON(req); err != nil {
			writeError(c, logger, models.NewInvalidArgumentError("invalid request body: %v", err))
			return
		}
		actor, _ := utils.GetActorUserIdFromContext(c.Request.Context())
		req.Header().ActorUserId = actor

		result, err := post(c.Request.Context(), req)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		if result.Replayed {
			c.JSON(http.StatusOK, result)
			return
		}
		c.JSON(http.StatusCreated, result)
	}
}

func getHandler[T any](logger *logrus.Logger, get func(context.Context, string) (T, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		obj, err := get(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, obj)
	}
}

func closePeriodHandler(logger *logrus.Logger, engine *workflow.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, _ := utils.GetActorUserIdFromContext(c.Request.Context())
		period, err := engine.ClosePeriod(c.Request.Context(), c.Param("id"), actor)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, period)
	}
}

func listPeriodsHandler(logger *logrus.Logger, engine *workflow.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		periods, err := engine.ListPeriods(c.Request.Context())
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, periods)
	}
}

func listLotsHandler(logger *logrus.Logger, engine *workflow.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter := models.LotFilter{
			LocationId:    c.Query("location_id"),
			UnitId:        c.Query("unit_id"),
			ItemId:        c.Query("item_id"),
			Status:        models.LotStatus(c.Query("status")),
			OnlyAvailable: c.Query("available") == "true",
		}
		lots, err := engine.ListLots(c.Request.Context(), filter)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, lots)
	}
}

func accountBalanceHandler(logger *logrus.Logger, engine *workflow.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		account := models.Account(c.Param("account"))
		filter := models.BalanceFilter{
			PartnerId:  c.Query("partner_id"),
			LotId:      c.Query("lot_id"),
			LocationId: c.Query("location_id"),
			UnitId:     c.Query("unit_id"),
		}
		balance, err := engine.AccountBalance(c.Request.Context(), account, filter)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"account": account, "balance_idr": balance})
	}
}
