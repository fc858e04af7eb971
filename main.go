package main

import (
	"context"
	"io/fs"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"research-hub/config"
	"research-hub/models"
	"research-hub/services"
	"research-hub/storage"
	"research-hub/store"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	newPapersCounter     prometheus.Counter
	updatedPapersCounter prometheus.Counter
	failedRecordsCounter prometheus.Counter
	missingPDFGauge      prometheus.Gauge
)

func init() {
	newPapersCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "papers_added_total",
		Help: "Total number of new papers added to the database.",
	})
	updatedPapersCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "papers_updated_total",
		Help: "Total number of papers merged into existing records.",
	})
	failedRecordsCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "records_failed_total",
		Help: "Total number of feed records that failed to persist.",
	})
	missingPDFGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "papers_missing_pdf",
		Help: "Number of papers without a locatable PDF in the last run.",
	})
	prometheus.MustRegister(newPapersCounter, updatedPapersCounter, failedRecordsCounter, missingPDFGauge)
}

func apiKeyAuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.APISecretKey == "" {
			c.Next()
			return
		}
		apiKey := c.GetHeader("X-API-KEY")
		if apiKey != cfg.APISecretKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Invalid API Key"})
			return
		}
		c.Next()
	}
}

// runState serialisiert Batch-Läufe und hält die Kennzahlen des letzten
// Laufs für die Report-Endpunkte.
type runState struct {
	mu      sync.Mutex
	running bool
	lastRun *services.RunStats
	lastErr error
}

func (r *runState) tryStart() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return false
	}
	r.running = true
	return true
}

func (r *runState) finish(stats *services.RunStats, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.running = false
	r.lastRun = stats
	r.lastErr = err
}

func (r *runState) snapshot() (*services.RunStats, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastRun, r.running, r.lastErr
}

func main() {
	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("Config load error", zap.Error(err))
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		logging.Fatal("Failed to connect to database", zap.Error(err))
	}
	logging.Info("Successfully connected to database.")

	logging.Info("Running database auto-migration...")
	if err := db.AutoMigrate(&models.Paper{}, &models.Author{}, &models.AuthorPaper{}); err != nil {
		logging.Fatal("Auto-migration failed", zap.Error(err))
	}

	roster, err := services.LoadRoster(cfg.RosterFile)
	if err != nil {
		logging.Fatal("Failed to load author roster", zap.Error(err), zap.String("file", cfg.RosterFile))
	}
	logging.Info("Author roster loaded", zap.Int("authors", roster.Len()))

	var s3Client *s3.Client
	if cfg.S3Enabled {
		s3Client, err = storage.NewS3Client(cfg)
		if err != nil {
			logging.Fatal("S3 client creation failed", zap.Error(err))
		}
	}

	st := store.New(db, logging)
	ingestService := services.NewIngestService(cfg, logging, st, roster)
	metricsMatcher := services.NewMetricsMatcher(logging, st, cfg.SemanticDir, cfg.MinYear)

	state := &runState{}
	runIngest := func(ctx context.Context) {
		if !state.tryStart() {
			logging.Warn("Ingest run already in progress, skipping")
			return
		}
		stats, err := ingestService.Run(ctx)
		state.finish(stats, err)
		if err != nil {
			logging.Error("Ingest run failed", zap.Error(err))
		}
		if stats != nil {
			newPapersCounter.Add(float64(stats.NewPapers))
			updatedPapersCounter.Add(float64(stats.UpdatedPapers))
			failedRecordsCounter.Add(float64(stats.FailedRecords))
			missingPDFGauge.Set(float64(len(stats.MissingPDF)))
		}
		if err == nil && s3Client != nil {
			mirrorImages(ctx, s3Client, cfg, logging)
		}
	}

	// Setup Router
	router := gin.Default()
	router.Use(apiKeyAuthMiddleware(cfg))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	setupIngestRoutes(router, state, runIngest, metricsMatcher, logging)
	setupPaperRoutes(router, db, logging)
	setupAuthorRoutes(router, db, logging)

	// Setup Cron
	cronScheduler := cron.New()
	cronScheduler.AddFunc(cfg.CronSchedule, func() {
		logging.Info("Running scheduled ingest job...")
		runIngest(context.Background())
	})
	cronScheduler.Start()

	logging.Info("Starting server", zap.String("port", cfg.HTTPPort))
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logging.Fatal("Failed to run server", zap.Error(err))
	}
}

func setupIngestRoutes(router *gin.Engine, state *runState, runIngest func(context.Context), matcher *services.MetricsMatcher, log *zap.Logger) {
	rg := router.Group("/ingest")

	// Startet einen Batch-Lauf asynchron. 409, wenn bereits einer läuft.
	rg.POST("/run", func(c *gin.Context) {
		if _, running, _ := state.snapshot(); running {
			c.JSON(http.StatusConflict, gin.H{"error": "ingest run already in progress"})
			return
		}
		go runIngest(context.Background())
		c.JSON(http.StatusAccepted, gin.H{"status": "started"})
	})

	rg.GET("/status", func(c *gin.Context) {
		stats, running, lastErr := state.snapshot()
		resp := gin.H{"running": running, "last_run": stats}
		if lastErr != nil {
			resp["last_error"] = lastErr.Error()
		}
		c.JSON(http.StatusOK, resp)
	})

	// Metrik-Abgleich gegen die lokalen Semantic-Scholar-Exporte.
	rg.POST("/metrics/run", func(c *gin.Context) {
		if err := matcher.Run(c.Request.Context()); err != nil {
			log.Error("Metrics matching failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "metrics matching failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "done"})
	})

	router.GET("/reports/missing-pdfs", func(c *gin.Context) {
		stats, _, _ := state.snapshot()
		if stats == nil {
			c.JSON(http.StatusOK, gin.H{"titles": []string{}})
			return
		}
		c.JSON(http.StatusOK, gin.H{"titles": stats.MissingPDF, "finished_at": stats.FinishedAt})
	})
}

func setupPaperRoutes(router *gin.Engine, db *gorm.DB, log *zap.Logger) {
	rg := router.Group("/papers")

	rg.GET("/", func(c *gin.Context) {
		var papers []models.Paper
		if err := db.Find(&papers).Error; err != nil {
			log.Error("Database query for all papers failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, papers)
	})

	rg.GET("/author/:name", func(c *gin.Context) {
		name := c.Param("name")
		var papers []models.Paper
		err := db.Joins("JOIN author_papers ON author_papers.paper_id = papers.id").
			Joins("JOIN authors ON authors.id = author_papers.author_id").
			Where("authors.name = ?", name).
			Find(&papers).Error
		if err != nil {
			log.Error("Database query for author papers failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		if len(papers) == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "no papers found for author " + name})
			return
		}
		c.JSON(http.StatusOK, papers)
	})
}

func setupAuthorRoutes(router *gin.Engine, db *gorm.DB, log *zap.Logger) {
	rg := router.Group("/authors")

	rg.GET("/", func(c *gin.Context) {
		var authors []models.Author
		if err := db.Order("name").Find(&authors).Error; err != nil {
			log.Error("Database query for all authors failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, authors)
	})
}

// mirrorImages spiegelt alle extrahierten Bilder in den S3-Bucket.
// PutObject ist idempotent; wiederholtes Spiegeln ist unkritisch.
func mirrorImages(ctx context.Context, client *s3.Client, cfg *config.Config, log *zap.Logger) {
	err := filepath.WalkDir(cfg.ImagesDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		if _, err := storage.MirrorImage(ctx, client, cfg, path); err != nil {
			log.Warn("Image mirror failed", zap.String("path", path), zap.Error(err))
		}
		return nil
	})
	if err != nil {
		log.Warn("Image mirroring aborted", zap.Error(err))
	}
}
