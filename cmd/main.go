package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"propertysite/internal/cache"
	"propertysite/internal/client"
	"propertysite/internal/configuration"
	"propertysite/internal/database"
	"propertysite/internal/logger"
	"propertysite/internal/mailer"
	"propertysite/internal/model"
	"propertysite/internal/server"
	"propertysite/internal/session"
)

const featuredLimit = 6

func main() {
	if err := runApp(); err != nil {
		fmt.Fprintln(os.Stderr, "Fatal:", err)
		os.Exit(1)
	}
}

func runApp() error {
	appContext := context.Background()
	appLogger := logger.NewLogger(logger.LevelInfo, os.Stdout)

	defer func() {
		if r := recover(); r != nil {
			appLogger.Errorf("APPLICATION CRASHED: %+v", r)
		}
	}()

	config, err := configuration.GetConfig()
	if err != nil {
		appLogger.Error("Error getting configuration:", err)
		return err
	}
	appLogger = logger.NewLogger(config.LogLevel, os.Stdout)

	appLogger.Info("Connecting to DB at", config.MongoURI)
	dbConn, err := database.ConnectDB(appContext, config.MongoURI)
	if err != nil {
		appLogger.Error("Error connecting to DB:", err)
		return err
	}
	defer func() {
		if err := dbConn.Disconnect(appContext); err != nil {
			appLogger.Error("Error disconnecting from DB:", err)
		}
	}()
	db := database.Database{Database: dbConn.Database(database.Name)}

	var sessionStore session.Store
	switch config.SessionStore {
	case configuration.SessionStoreRedis:
		opts, err := redis.ParseURL(config.RedisURI)
		if err != nil {
			appLogger.Error("Error parsing Redis URI:", err)
			return err
		}
		redisClient := redis.NewClient(opts)
		if err := redisClient.Ping(appContext).Err(); err != nil {
			appLogger.Error("Error connecting to Redis:", err)
			return err
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				appLogger.Error("Error closing Redis client:", err)
			}
		}()
		appLogger.Info("Using Redis session store")
		sessionStore = session.NewRedisStore(redisClient)
	default:
		appLogger.Info("Using MongoDB session store")
		sessionStore = session.NewMongoStore(db.Collection(database.CollectionSessions))
	}

	sessions, err := session.NewManager(
		sessionStore,
		[]byte(config.SessionSecret),
		config.SessionName,
		config.SessionMaxAge,
		config.IsProduction(),
	)
	if err != nil {
		appLogger.Error("Error creating session manager:", err)
		return err
	}

	appMailer, err := mailer.New(mailer.Config{
		Host:    config.SMTPHost,
		Port:    config.SMTPPort,
		Secure:  config.SMTPSecure,
		User:    config.SMTPUser,
		Pass:    config.SMTPPass,
		From:    config.SMTPFrom,
		BaseURL: config.BaseURL,
	})
	if err != nil {
		appLogger.Error("Error creating mailer:", err)
		return err
	}

	featured := cache.NewFeatured(cache.DefaultTTL, func(ctx context.Context) ([]model.Property, error) {
		return db.PropertiesFindActive(ctx, featuredLimit)
	})

	srv := server.Server{
		DB:       db,
		Sessions: sessions,
		Mailer:   appMailer,
		Client: client.Client{
			Client:             &http.Client{Timeout: 15 * time.Second},
			RecaptchaSecretKey: config.RecaptchaSecretKey,
			RecaptchaMinScore:  config.RecaptchaMinScore,
			RecaptchaAction:    config.RecaptchaAction,
			Logger:             appLogger,
		},
		Featured: featured,
		Logger:   appLogger,
		Config:   config,
	}

	if config.IsProduction() {
		httpsSrv := &http.Server{
			Handler:      srv.Router(),
			Addr:         fmt.Sprintf(":%d", config.HTTPSPort),
			WriteTimeout: 15 * time.Second,
			ReadTimeout:  15 * time.Second,
			IdleTimeout:  15 * time.Second,
		}
		go redirectToHTTPS(appLogger, config.HTTPPort)
		appLogger.Info("Serving HTTPS on", httpsSrv.Addr)
		return httpsSrv.ListenAndServeTLS(config.SSLCertPath, config.SSLKeyPath)
	}

	httpSrv := &http.Server{
		Handler:      srv.Router(),
		Addr:         fmt.Sprintf(":%d", config.HTTPPort),
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
		IdleTimeout:  15 * time.Second,
	}
	appLogger.Info("Serving on", httpSrv.Addr)
	return httpSrv.ListenAndServe()
}

func redirectToHTTPS(appLogger *logger.Logger, httpPort int) {
	redirectSrv := &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			target := "https://" + r.Host + r.URL.RequestURI()
			http.Redirect(w, r, target, http.StatusMovedPermanently)
		}),
		Addr:         fmt.Sprintf(":%d", httpPort),
		WriteTimeout: 5 * time.Second,
		ReadTimeout:  5 * time.Second,
	}
	appLogger.Info("Redirecting HTTP on", redirectSrv.Addr)
	if err := redirectSrv.ListenAndServe(); err != nil {
		appLogger.Error("HTTP redirect listener stopped:", err)
	}
}
