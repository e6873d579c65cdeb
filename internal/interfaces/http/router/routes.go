package router

import (
	"github.com/erp/production/internal/interfaces/http/handler"
	"github.com/gin-gonic/gin"
)

// Handlers groups the HTTP handlers of the production pipeline
type Handlers struct {
	JobOrder *handler.JobOrderHandler
	IWO      *handler.IWOHandler
	Ledger   *handler.LedgerHandler
	Packing  *handler.PackingHandler
	Dispatch *handler.DispatchHandler
	System   *handler.SystemHandler
}

// RegisterPipelineRoutes registers one domain group per pipeline stage.
// idempotent guards the requests that create bundles and dispatches; a
// retried POST with the same Idempotency-Key is rejected instead of packing
// or shipping twice.
func RegisterPipelineRoutes(r *Router, h Handlers, idempotent gin.HandlerFunc) {
	jobOrders := NewDomainGroup("job_order", "/job-orders")
	jobOrders.PUT("/:id", h.JobOrder.Sync)
	jobOrders.GET("/:id", h.JobOrder.GetByID)
	r.Register(jobOrders)

	iwo := NewDomainGroup("iwo", "/iwo")
	iwo.GET("", h.IWO.List)
	iwo.POST("", h.IWO.Create)
	iwo.DELETE("", h.IWO.DeleteBatch)
	iwo.GET("/:id", h.IWO.GetByID)
	iwo.PUT("/:id", h.IWO.Update)
	iwo.DELETE("/:id", h.IWO.Delete)
	r.Register(iwo)

	ledger := NewDomainGroup("ledger", "/ledger")
	ledger.GET("", h.Ledger.List)
	ledger.GET("/:id", h.Ledger.GetByID)
	ledger.POST("/:id/report", h.Ledger.Report)
	r.Register(ledger)

	packing := NewDomainGroup("packing", "/packing")
	packing.GET("", h.Packing.List)
	packing.POST("", idempotent, h.Packing.Create)
	packing.PATCH("/qr", h.Packing.Seal)
	packing.GET("/:id", h.Packing.GetByID)
	r.Register(packing)

	dispatch := NewDomainGroup("dispatch", "/dispatch")
	dispatch.GET("", h.Dispatch.List)
	dispatch.POST("", idempotent, h.Dispatch.Create)
	dispatch.GET("/qrscan", h.Dispatch.ScanQR)
	dispatch.GET("/:id", h.Dispatch.GetByID)
	dispatch.PUT("/:id", h.Dispatch.Update)
	r.Register(dispatch)

	system := NewDomainGroup("system", "/system")
	system.GET("/info", h.System.GetSystemInfo)
	system.GET("/health", h.System.Health)
	r.Register(system)
}
