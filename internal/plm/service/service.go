package service

import (
	"github.com/bitfantasy/nimo-baseline/internal/config"
	"github.com/bitfantasy/nimo-baseline/internal/plm/repository"
	"github.com/bitfantasy/nimo-baseline/internal/plm/sse"
	"github.com/bitfantasy/nimo-baseline/internal/shared/telemetry"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Services 服务集合
type Services struct {
	Baseline *BaselineService
	Compare  *CompareService
}

// NewServices 创建服务集合
func NewServices(
	repos *repository.Repositories,
	rdb *redis.Client,
	cfg *config.Config,
	hub *sse.Hub,
	metrics *telemetry.Metrics,
	logger *zap.Logger,
) *Services {
	if logger == nil {
		logger = zap.NewNop()
	}

	// 初始化MinIO客户端
	var minioClient *minio.Client
	if cfg.MinIO.Endpoint != "" {
		var err error
		minioClient, err = minio.New(cfg.MinIO.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, ""),
			Secure: cfg.MinIO.UseSSL,
		})
		if err != nil {
			logger.Warn("MinIO client init failed, snapshot archive disabled", zap.Error(err))
			minioClient = nil
		}
	}

	baselineSvc := NewBaselineService(
		repos.Baseline,
		repos.ProjectBOM,
		NewSnapshotArchive(minioClient, cfg.MinIO.Bucket),
		hub,
		metrics,
		logger.Named("baseline"),
		cfg.Compare.RejectDuplicateIDs,
	)

	return &Services{
		Baseline: baselineSvc,
		Compare: NewCompareService(
			baselineSvc,
			NewCompareCache(rdb, cfg.Compare.CacheTTL),
			metrics,
			logger.Named("compare"),
			cfg.Compare.ChunkSize,
		),
	}
}
