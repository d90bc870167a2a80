package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wms-platform/inventory-ledger-service/internal/application"
	"github.com/wms-platform/inventory-ledger-service/internal/domain"
	mongoRepo "github.com/wms-platform/inventory-ledger-service/internal/infrastructure/mongodb"
	"github.com/wms-platform/inventory-ledger-service/pkg/errors"
	"github.com/wms-platform/inventory-ledger-service/pkg/idempotency"
	"github.com/wms-platform/inventory-ledger-service/pkg/kafka"
	"github.com/wms-platform/inventory-ledger-service/pkg/logging"
	"github.com/wms-platform/inventory-ledger-service/pkg/metrics"
	"github.com/wms-platform/inventory-ledger-service/pkg/middleware"
	"github.com/wms-platform/inventory-ledger-service/pkg/mongodb"
	"github.com/wms-platform/inventory-ledger-service/pkg/outbox"
)

const serviceName = "inventory-ledger-service"

func main() {
	// Setup enhanced logger
	logConfig := logging.DefaultConfig(serviceName)
	logConfig.Level = logging.LogLevel(getEnv("LOG_LEVEL", "info"))
	logger := logging.New(logConfig)
	logger.SetDefault()

	logger.Info("Starting inventory-ledger-service API")

	// Load configuration
	config := loadConfig()
	ctx := context.Background()

	// Initialize Prometheus metrics
	metricsConfig := metrics.DefaultConfig(serviceName)
	m := metrics.New(metricsConfig)
	logger.Info("Metrics initialized")

	// Initialize MongoDB
	mongoClient, err := mongodb.NewClient(ctx, config.MongoDB)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to MongoDB")
		os.Exit(1)
	}
	defer mongoClient.Close(ctx)
	logger.Info("Connected to MongoDB", "database", config.MongoDB.Database)

	// Initialize repositories
	recordRepo := mongoRepo.NewInventoryRecordRepository(mongoClient)
	ledgerRepo := mongoRepo.NewLedgerRepository(mongoClient)
	countRepo := mongoRepo.NewCycleCountRepository(mongoClient)
	piRepo := mongoRepo.NewPhysicalInventoryRepository(mongoClient)
	outboxRepo := outbox.NewMongoRepository(mongoClient.Database())
	txRunner := mongoRepo.NewTxRunner(mongoClient)

	// Initialize idempotency repository
	idempotencyConfig := idempotency.DefaultConfig(serviceName)
	idempotencyRepo := idempotency.NewMongoKeyRepository(mongoClient.Database(), idempotencyConfig.KeyTTL)

	indexers := []interface {
		EnsureIndexes(ctx context.Context) error
	}{recordRepo, ledgerRepo, countRepo, piRepo, outboxRepo, idempotencyRepo}
	for _, indexer := range indexers {
		if err := indexer.EnsureIndexes(ctx); err != nil {
			logger.WithError(err).Warn("Failed to ensure indexes", "error", err)
		}
	}
	logger.Info("MongoDB indexes ensured")

	// Initialize Kafka producer with instrumentation
	kafkaProducer := kafka.NewProducer(config.Kafka)
	instrumentedProducer := kafka.NewInstrumentedProducer(kafkaProducer, m, logger)
	defer instrumentedProducer.Close()
	logger.Info("Kafka producer initialized", "brokers", config.Kafka.Brokers)

	// Initialize and start outbox publisher
	outboxPublisher := outbox.NewPublisher(
		outboxRepo,
		instrumentedProducer,
		logger,
		&outbox.PublisherConfig{
			PollInterval: 1 * time.Second,
			BatchSize:    100,
		},
	)
	if err := outboxPublisher.Start(ctx); err != nil {
		logger.WithError(err).Error("Failed to start outbox publisher")
		os.Exit(1)
	}
	defer outboxPublisher.Stop()
	logger.Info("Outbox publisher started")

	// Initialize application services
	operatorService := application.NewOperatorService(recordRepo, ledgerRepo, outboxRepo, txRunner, m, logger)
	cycleCountService := application.NewCycleCountService(countRepo, recordRepo, operatorService, outboxRepo, m, logger)
	physicalInventoryService := application.NewPhysicalInventoryService(piRepo, recordRepo, operatorService, outboxRepo, m, logger)
	queryService := application.NewQueryService(recordRepo, ledgerRepo, countRepo, piRepo, logger)

	// Setup Gin router with middleware
	router := gin.New()

	middlewareConfig := middleware.DefaultConfig(serviceName, logger.Logger)
	middleware.Setup(router, middlewareConfig)

	// Add metrics middleware
	router.Use(middleware.MetricsMiddleware(m))

	// Handle 404 and 405 errors
	router.NoRoute(middleware.NoRoute())
	router.NoMethod(middleware.NoMethod())

	// Health check endpoints
	router.GET("/health", middleware.HealthCheck(serviceName))
	router.GET("/ready", middleware.ReadinessCheck(serviceName, func() error {
		return mongoClient.HealthCheck(ctx)
	}))

	// Metrics endpoint
	router.GET("/metrics", middleware.MetricsEndpoint(m))

	idempotent := idempotency.Middleware(idempotencyRepo, idempotencyConfig, logger)

	// Inventory record and ledger routes
	api := router.Group("/api/v1/inventory")
	api.Use(idempotent)
	{
		// Static routes first (must come before wildcard routes)
		api.GET("/records", searchRecordsHandler(queryService, logger))
		api.POST("/records/receive", receiveHandler(operatorService, logger))
		api.GET("/ledger", ledgerQueryHandler(queryService, logger))
		api.GET("/summary", summaryHandler(queryService, logger))
		api.GET("/discrepancies", discrepanciesHandler(queryService, logger))

		api.GET("/records/:recordId", getRecordHandler(queryService, logger))
		api.GET("/records/:recordId/ledger", recordLedgerHandler(queryService, logger))
		api.POST("/records/:recordId/adjust", adjustHandler(operatorService, logger))
		api.POST("/records/:recordId/transfer", transferHandler(operatorService, logger))
		api.POST("/records/:recordId/move", moveHandler(operatorService, logger))
		api.POST("/records/:recordId/status", setStatusHandler(operatorService, logger))
	}

	// Cycle count workflow routes
	counts := router.Group("/api/v1/cycle-counts")
	counts.Use(idempotent)
	{
		counts.POST("", createCycleCountHandler(cycleCountService, logger))
		counts.GET("", listCycleCountsHandler(cycleCountService, logger))
		counts.GET("/:countId", getCycleCountHandler(cycleCountService, logger))
		counts.POST("/:countId/start", startCycleCountHandler(cycleCountService, logger))
		counts.POST("/:countId/lines", recordCountHandler(cycleCountService, logger))
		counts.POST("/:countId/lines/:lineId/recount", recountLineHandler(cycleCountService, logger))
		counts.POST("/:countId/submit", submitCycleCountHandler(cycleCountService, logger))
		counts.POST("/:countId/approve", approveCycleCountHandler(cycleCountService, logger))
		counts.POST("/:countId/cancel", cancelCycleCountHandler(cycleCountService, logger))
	}

	// Physical inventory workflow routes
	pis := router.Group("/api/v1/physical-inventories")
	pis.Use(idempotent)
	{
		pis.POST("", createPhysicalInventoryHandler(physicalInventoryService, logger))
		pis.GET("", listPhysicalInventoriesHandler(physicalInventoryService, logger))
		pis.GET("/:piId", getPhysicalInventoryHandler(physicalInventoryService, logger))
		pis.POST("/:piId/generate-books", generateBooksHandler(physicalInventoryService, logger))
		pis.GET("/:piId/variance-report", varianceReportHandler(physicalInventoryService, logger))
		pis.POST("/:piId/complete", completePhysicalInventoryHandler(physicalInventoryService, logger))
		pis.POST("/:piId/cancel", cancelPhysicalInventoryHandler(physicalInventoryService, logger))

		pis.POST("/:piId/books/:bookId/assign", assignBookHandler(physicalInventoryService, logger))
		pis.POST("/:piId/books/:bookId/start", startBookHandler(physicalInventoryService, logger))
		pis.POST("/:piId/books/:bookId/lines", recordBookLineHandler(physicalInventoryService, logger))
		pis.POST("/:piId/books/:bookId/approve-line", approveVarianceLineHandler(physicalInventoryService, logger))
		pis.POST("/:piId/books/:bookId/complete", completeBookHandler(physicalInventoryService, logger))
	}

	// Start server
	srv := &http.Server{
		Addr:         config.ServerAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server error", "error", err)
		}
	}()
	logger.Info("Server started", "addr", config.ServerAddr)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server stopped")
}

// Config holds application configuration
type Config struct {
	ServerAddr string
	MongoDB    *mongodb.Config
	Kafka      *kafka.Config
}

func loadConfig() *Config {
	return &Config{
		ServerAddr: getEnv("SERVER_ADDR", ":8010"),
		MongoDB: &mongodb.Config{
			URI:            getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database:       getEnv("MONGODB_DATABASE", "inventory_ledger_db"),
			ConnectTimeout: 10 * time.Second,
			MaxPoolSize:    100,
			MinPoolSize:    10,
		},
		Kafka: &kafka.Config{
			Brokers:      []string{getEnv("KAFKA_BROKERS", "localhost:9092")},
			ClientID:     serviceName,
			BatchSize:    100,
			BatchTimeout: 10 * time.Millisecond,
			RequiredAcks: -1,
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func intQuery(c *gin.Context, key string, defaultValue int64) int64 {
	raw := c.Query(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return defaultValue
	}
	return v
}

func respondDomainError(responder *middleware.ErrorResponder, err error) {
	responder.RespondWithAppError(errors.MapDomainError(err))
}

func receiveHandler(service *application.OperatorService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req struct {
			WarehouseID   string `json:"warehouseId" binding:"required"`
			SKU           string `json:"sku" binding:"required"`
			ProductName   string `json:"productName"`
			LocationID    string `json:"locationId" binding:"required"`
			Zone          string `json:"zone"`
			LotNumber     string `json:"lotNumber"`
			LicensePlate  string `json:"licensePlate"`
			Quantity      int    `json:"quantity" binding:"required"`
			UnitCostCents int64  `json:"unitCostCents"`
			ReorderPoint  int    `json:"reorderPoint"`
			ReferenceID   string `json:"referenceId"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		cmd := application.ReceiveCommand{
			WarehouseID:   req.WarehouseID,
			SKU:           req.SKU,
			ProductName:   req.ProductName,
			LocationID:    req.LocationID,
			Zone:          req.Zone,
			LotNumber:     req.LotNumber,
			LicensePlate:  req.LicensePlate,
			Quantity:      req.Quantity,
			UnitCostCents: req.UnitCostCents,
			ReorderPoint:  req.ReorderPoint,
			ReferenceID:   req.ReferenceID,
			ActorID:       middleware.GetActorID(c),
		}

		record, err := service.Receive(c.Request.Context(), cmd)
		if err != nil {
			respondDomainError(responder, err)
			return
		}

		c.JSON(http.StatusCreated, record)
	}
}

func adjustHandler(service *application.OperatorService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req struct {
			Delta         int    `json:"delta" binding:"required"`
			Reason        string `json:"reason" binding:"required"`
			ReferenceType string `json:"referenceType"`
			ReferenceID   string `json:"referenceId"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		cmd := application.AdjustCommand{
			RecordID:      c.Param("recordId"),
			Delta:         req.Delta,
			Reason:        req.Reason,
			ReferenceType: req.ReferenceType,
			ReferenceID:   req.ReferenceID,
			ActorID:       middleware.GetActorID(c),
		}

		record, err := service.Adjust(c.Request.Context(), cmd)
		if err != nil {
			respondDomainError(responder, err)
			return
		}

		c.JSON(http.StatusOK, record)
	}
}

func transferHandler(service *application.OperatorService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req struct {
			ToLocationID string `json:"toLocationId" binding:"required"`
			ToZone       string `json:"toZone"`
			Quantity     int    `json:"quantity" binding:"required"`
			ReferenceID  string `json:"referenceId"`
			Reason       string `json:"reason"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		cmd := application.TransferCommand{
			FromRecordID: c.Param("recordId"),
			ToLocationID: req.ToLocationID,
			ToZone:       req.ToZone,
			Quantity:     req.Quantity,
			ReferenceID:  req.ReferenceID,
			Reason:       req.Reason,
			ActorID:      middleware.GetActorID(c),
		}

		result, err := service.Transfer(c.Request.Context(), cmd)
		if err != nil {
			respondDomainError(responder, err)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

func moveHandler(service *application.OperatorService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req struct {
			ToLocationID string `json:"toLocationId" binding:"required"`
			ToZone       string `json:"toZone"`
			Reason       string `json:"reason"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		cmd := application.MoveCommand{
			RecordID:     c.Param("recordId"),
			ToLocationID: req.ToLocationID,
			ToZone:       req.ToZone,
			Reason:       req.Reason,
			ActorID:      middleware.GetActorID(c),
		}

		record, err := service.Move(c.Request.Context(), cmd)
		if err != nil {
			respondDomainError(responder, err)
			return
		}

		c.JSON(http.StatusOK, record)
	}
}

func setStatusHandler(service *application.OperatorService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req struct {
			Status string `json:"status" binding:"required"`
			Reason string `json:"reason"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		cmd := application.SetStatusCommand{
			RecordID: c.Param("recordId"),
			Status:   req.Status,
			Reason:   req.Reason,
			ActorID:  middleware.GetActorID(c),
		}

		record, err := service.SetStatus(c.Request.Context(), cmd)
		if err != nil {
			respondDomainError(responder, err)
			return
		}

		c.JSON(http.StatusOK, record)
	}
}

func getRecordHandler(service *application.QueryService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		record, err := service.GetRecord(c.Request.Context(), c.Param("recordId"))
		if err != nil {
			respondDomainError(responder, err)
			return
		}

		c.JSON(http.StatusOK, record)
	}
}

func searchRecordsHandler(service *application.QueryService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		filter := domain.RecordFilter{
			WarehouseID: c.Query("warehouseId"),
			SKU:         c.Query("sku"),
			LocationID:  c.Query("locationId"),
			Zone:        c.Query("zone"),
			Status:      domain.InventoryStatus(c.Query("status")),
			IncludeZero: c.Query("includeZero") == "true",
			Limit:       intQuery(c, "limit", 100),
			Offset:      intQuery(c, "offset", 0),
		}

		records, err := service.SearchRecords(c.Request.Context(), filter)
		if err != nil {
			respondDomainError(responder, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"records": records, "count": len(records)})
	}
}

func ledgerQueryHandler(service *application.QueryService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		filter, err := ledgerFilterFromQuery(c)
		if err != nil {
			responder.RespondBadRequest(err.Error())
			return
		}

		entries, err := service.GetLedger(c.Request.Context(), filter)
		if err != nil {
			respondDomainError(responder, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"entries": entries, "count": len(entries)})
	}
}

func recordLedgerHandler(service *application.QueryService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		filter, err := ledgerFilterFromQuery(c)
		if err != nil {
			responder.RespondBadRequest(err.Error())
			return
		}
		filter.RecordID = domain.RecordID(c.Param("recordId"))

		entries, err := service.GetLedger(c.Request.Context(), filter)
		if err != nil {
			respondDomainError(responder, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"entries": entries, "count": len(entries)})
	}
}

func ledgerFilterFromQuery(c *gin.Context) (domain.LedgerFilter, error) {
	filter := domain.LedgerFilter{
		SKU:         c.Query("sku"),
		WarehouseID: c.Query("warehouseId"),
		LocationID:  c.Query("locationId"),
		Type:        domain.EntryType(c.Query("type")),
		ReferenceID: c.Query("referenceId"),
		Limit:       intQuery(c, "limit", 100),
		Offset:      intQuery(c, "offset", 0),
	}

	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, err
		}
		filter.From = &t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, err
		}
		filter.To = &t
	}

	return filter, nil
}

func summaryHandler(service *application.QueryService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		filter := domain.RecordFilter{
			WarehouseID: c.Query("warehouseId"),
			SKU:         c.Query("sku"),
			Zone:        c.Query("zone"),
			IncludeZero: c.Query("includeZero") == "true",
			Limit:       intQuery(c, "limit", 1000),
		}

		summary, err := service.GetInventorySummary(c.Request.Context(), filter, c.Query("includeRecords") == "true")
		if err != nil {
			respondDomainError(responder, err)
			return
		}

		c.JSON(http.StatusOK, summary)
	}
}

func discrepanciesHandler(service *application.QueryService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		discrepancies, err := service.GetDiscrepancies(c.Request.Context(), c.Query("warehouseId"))
		if err != nil {
			respondDomainError(responder, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"discrepancies": discrepancies, "count": len(discrepancies)})
	}
}

func createCycleCountHandler(service *application.CycleCountService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var cmd application.CreateCycleCountCommand
		if err := c.ShouldBindJSON(&cmd); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		cmd.ActorID = middleware.GetActorID(c)

		count, err := service.Create(c.Request.Context(), cmd)
		if err != nil {
			respondDomainError(responder, err)
			return
		}

		c.JSON(http.StatusCreated, count)
	}
}

func listCycleCountsHandler(service *application.CycleCountService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		counts, err := service.List(
			c.Request.Context(),
			c.Query("warehouseId"),
			domain.CycleCountStatus(c.Query("status")),
			intQuery(c, "limit", 50),
			intQuery(c, "offset", 0),
		)
		if err != nil {
			respondDomainError(responder, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"counts": counts, "count": len(counts)})
	}
}

func getCycleCountHandler(service *application.CycleCountService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		count, err := service.Get(c.Request.Context(), c.Param("countId"))
		if err != nil {
			respondDomainError(responder, err)
			return
		}

		c.JSON(http.StatusOK, count)
	}
}

func startCycleCountHandler(service *application.CycleCountService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		count, err := service.Start(c.Request.Context(), c.Param("countId"))
		if err != nil {
			respondDomainError(responder, err)
			return
		}

		c.JSON(http.StatusOK, count)
	}
}

func recordCountHandler(service *application.CycleCountService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req struct {
			LineID          string `json:"lineId" binding:"required"`
			CountedQuantity *int   `json:"countedQuantity" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		cmd := application.RecordCountCommand{
			CountID:         c.Param("countId"),
			LineID:          req.LineID,
			CountedQuantity: *req.CountedQuantity,
			ActorID:         middleware.GetActorID(c),
		}

		count, err := service.RecordCount(c.Request.Context(), cmd)
		if err != nil {
			respondDomainError(responder, err)
			return
		}

		c.JSON(http.StatusOK, count)
	}
}

func recountLineHandler(service *application.CycleCountService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		count, err := service.RecountLine(c.Request.Context(), c.Param("countId"), c.Param("lineId"))
		if err != nil {
			respondDomainError(responder, err)
			return
		}

		c.JSON(http.StatusOK, count)
	}
}

func submitCycleCountHandler(service *application.CycleCountService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		count, err := service.Submit(c.Request.Context(), c.Param("countId"))
		if err != nil {
			respondDomainError(responder, err)
			return
		}

		c.JSON(http.StatusOK, count)
	}
}

func approveCycleCountHandler(service *application.CycleCountService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req struct {
			AdjustAll bool `json:"adjustAll"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		cmd := application.ApproveCycleCountCommand{
			CountID:   c.Param("countId"),
			AdjustAll: req.AdjustAll,
			ActorID:   middleware.GetActorID(c),
		}

		count, err := service.Approve(c.Request.Context(), cmd)
		if err != nil {
			respondDomainError(responder, err)
			return
		}

		c.JSON(http.StatusOK, count)
	}
}

func cancelCycleCountHandler(service *application.CycleCountService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		count, err := service.Cancel(c.Request.Context(), c.Param("countId"))
		if err != nil {
			respondDomainError(responder, err)
			return
		}

		c.JSON(http.StatusOK, count)
	}
}

func createPhysicalInventoryHandler(service *application.PhysicalInventoryService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var cmd application.CreatePhysicalInventoryCommand
		if err := c.ShouldBindJSON(&cmd); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		cmd.ActorID = middleware.GetActorID(c)

		pi, err := service.Create(c.Request.Context(), cmd)
		if err != nil {
			respondDomainError(responder, err)
			return
		}

		c.JSON(http.StatusCreated, pi)
	}
}

func listPhysicalInventoriesHandler(service *application.PhysicalInventoryService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		sessions, err := service.List(
			c.Request.Context(),
			c.Query("warehouseId"),
			domain.PhysicalInventoryStatus(c.Query("status")),
			intQuery(c, "limit", 50),
			intQuery(c, "offset", 0),
		)
		if err != nil {
			respondDomainError(responder, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"sessions": sessions, "count": len(sessions)})
	}
}

func getPhysicalInventoryHandler(service *application.PhysicalInventoryService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		pi, err := service.Get(c.Request.Context(), c.Param("piId"), c.Query("includeBooks") != "false")
		if err != nil {
			respondDomainError(responder, err)
			return
		}

		c.JSON(http.StatusOK, pi)
	}
}

func generateBooksHandler(service *application.PhysicalInventoryService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		pi, err := service.GenerateBooks(c.Request.Context(), c.Param("piId"))
		if err != nil {
			respondDomainError(responder, err)
			return
		}

		c.JSON(http.StatusOK, pi)
	}
}

func assignBookHandler(service *application.PhysicalInventoryService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req struct {
			AssignedTo string `json:"assignedTo" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		cmd := application.AssignBookCommand{
			PIID:       c.Param("piId"),
			BookID:     c.Param("bookId"),
			AssignedTo: req.AssignedTo,
			ActorID:    middleware.GetActorID(c),
		}

		pi, err := service.AssignBook(c.Request.Context(), cmd)
		if err != nil {
			respondDomainError(responder, err)
			return
		}

		c.JSON(http.StatusOK, pi)
	}
}

func startBookHandler(service *application.PhysicalInventoryService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		pi, err := service.StartBook(c.Request.Context(), c.Param("piId"), c.Param("bookId"))
		if err != nil {
			respondDomainError(responder, err)
			return
		}

		c.JSON(http.StatusOK, pi)
	}
}

func recordBookLineHandler(service *application.PhysicalInventoryService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req struct {
			LineID   string `json:"lineId" binding:"required"`
			Quantity *int   `json:"quantity" binding:"required"`
			Recount  bool   `json:"recount"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		cmd := application.RecordBookLineCommand{
			PIID:     c.Param("piId"),
			BookID:   c.Param("bookId"),
			LineID:   req.LineID,
			Quantity: *req.Quantity,
			Recount:  req.Recount,
			ActorID:  middleware.GetActorID(c),
		}

		pi, err := service.RecordLine(c.Request.Context(), cmd)
		if err != nil {
			respondDomainError(responder, err)
			return
		}

		c.JSON(http.StatusOK, pi)
	}
}

func completeBookHandler(service *application.PhysicalInventoryService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		pi, err := service.CompleteBook(c.Request.Context(), c.Param("piId"), c.Param("bookId"))
		if err != nil {
			respondDomainError(responder, err)
			return
		}

		c.JSON(http.StatusOK, pi)
	}
}

func varianceReportHandler(service *application.PhysicalInventoryService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		report, err := service.VarianceReport(c.Request.Context(), c.Param("piId"))
		if err != nil {
			respondDomainError(responder, err)
			return
		}

		c.JSON(http.StatusOK, report)
	}
}

func approveVarianceLineHandler(service *application.PhysicalInventoryService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req struct {
			LineID string `json:"lineId" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		cmd := application.ApproveVarianceLineCommand{
			PIID:    c.Param("piId"),
			BookID:  c.Param("bookId"),
			LineID:  req.LineID,
			ActorID: middleware.GetActorID(c),
		}

		pi, err := service.ApproveLine(c.Request.Context(), cmd)
		if err != nil {
			respondDomainError(responder, err)
			return
		}

		c.JSON(http.StatusOK, pi)
	}
}

func completePhysicalInventoryHandler(service *application.PhysicalInventoryService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req struct {
			PostAdjustments bool `json:"postAdjustments"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		cmd := application.CompletePhysicalInventoryCommand{
			PIID:            c.Param("piId"),
			PostAdjustments: req.PostAdjustments,
			ActorID:         middleware.GetActorID(c),
		}

		pi, err := service.Complete(c.Request.Context(), cmd)
		if err != nil {
			respondDomainError(responder, err)
			return
		}

		c.JSON(http.StatusOK, pi)
	}
}

func cancelPhysicalInventoryHandler(service *application.PhysicalInventoryService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		pi, err := service.Cancel(c.Request.Context(), c.Param("piId"))
		if err != nil {
			respondDomainError(responder, err)
			return
		}

		c.JSON(http.StatusOK, pi)
	}
}
