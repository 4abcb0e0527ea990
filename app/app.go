package app

import (
	"context"
	"dive_center_rental/config"
	"dive_center_rental/db"
	"dive_center_rental/sequence"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 简化别名，便于 handlers 调用
type Ctx = gin.Context
type H = gin.H

// App 聚合各依赖
type App struct {
	Router *gin.Engine
	DB     *gorm.DB
	RDB    *redis.Client // nil when REDIS_ADDR is unset
	Log    *zap.Logger
	Config config.Config
	Repo   *db.Repo

	seq *sequence.RedisSequence // nil without Redis
}

// New wires an App around already opened connections.
func New(cfg config.Config, conn *gorm.DB, rdb *redis.Client, log *zap.Logger) *App {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	var numbers db.BasketNumberer = sequence.NewRandomNumberer(cfg.BasketPrefix)
	var seq *sequence.RedisSequence
	if rdb != nil {
		seq = sequence.NewRedisSequence(rdb, cfg.BasketPrefix)
		numbers = seq
	}

	r := gin.New()
	r.Use(RequestLogger(log), gin.Recovery(), StaffIdentity())
	useCORS(r, cfg.WebOrigin)

	return &App{
		Router: r,
		DB:     conn,
		RDB:    rdb,
		Log:    log,
		Config: cfg,
		Repo:   db.NewRepo(conn, numbers),
		seq:    seq,
	}
}

// Connect opens Postgres and, when configured, Redis.
func Connect(ctx context.Context, cfg config.Config) (*gorm.DB, *redis.Client, error) {
	conn, err := db.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if cfg.RedisAddr == "" {
		return conn, nil, nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPwd, DB: 0})
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, err
	}
	return conn, rdb, nil
}

func (a *App) Close() {
	if a.RDB != nil {
		_ = a.RDB.Close()
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = a.Log.Sync()
}
