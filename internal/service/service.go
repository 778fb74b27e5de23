package service

import (
	"github.com/SeraphMX/interdeco-backoffice-sub000/internal/config"
	"github.com/SeraphMX/interdeco-backoffice-sub000/internal/repository"
	"github.com/SeraphMX/interdeco-backoffice-sub000/internal/sse"
	"github.com/SeraphMX/interdeco-backoffice-sub000/internal/token"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Services bundles the application services for injection into handlers.
type Services struct {
	Auth     *AuthService
	Customer *CustomerService
	Product  *ProductService
	Quote    *QuoteService
	Mail     *MailService
}

func NewServices(repos *repository.Repositories, rdb *redis.Client, cfg *config.Config, mailer Mailer, hub *sse.Hub, logger *zap.Logger) *Services {
	signer := token.NewSigner(cfg.JWT.Secret, cfg.JWT.Issuer)
	mail := NewMailService(mailer, cfg.App, logger)

	// Object storage is optional; product photo upload reports it missing.
	var minioClient *minio.Client
	minioHost := ""
	if cfg.MinIO.Endpoint != "" {
		scheme := "http"
		if cfg.MinIO.UseSSL {
			scheme = "https"
		}
		var err error
		minioClient, err = minio.New(cfg.MinIO.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, ""),
			Secure: cfg.MinIO.UseSSL,
		})
		if err != nil {
			logger.Warn("object storage unavailable", zap.Error(err))
			minioClient = nil
		} else {
			minioHost = scheme + "://" + cfg.MinIO.Endpoint
		}
	}

	return &Services{
		Auth:     NewAuthService(repos.User, rdb, signer, mail, cfg),
		Customer: NewCustomerService(repos.Customer),
		Product:  NewProductService(repos.Product, rdb, minioClient, cfg.MinIO.Bucket, minioHost),
		Quote:    NewQuoteService(repos.Quote, repos.Customer, repos.Product, signer, mail, hub, cfg.JWT.QuoteTokenExpire, logger),
		Mail:     mail,
	}
}
