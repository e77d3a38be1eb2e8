package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/cppla/mediadesk/config"
	"github.com/cppla/mediadesk/models"
	"github.com/cppla/mediadesk/repository"
	"github.com/cppla/mediadesk/routes"
	"github.com/cppla/mediadesk/storage"
	"github.com/cppla/mediadesk/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg.Log); err != nil {
		panic(err)
	}
	defer func() { _ = utils.Logger.Sync() }()

	ctx := context.Background()
	stores, closeStores, err := openStores(ctx, cfg)
	if err != nil {
		utils.Sugar.Fatalf("open metadata store: %v", err)
	}
	defer closeStores()

	if len(os.Args) > 1 && os.Args[1] == "seed-admin" {
		if err := seedAdmin(ctx, stores.Roster, os.Args[2:]); err != nil {
			utils.Sugar.Fatalf("seed-admin: %v", err)
		}
		return
	}

	assets, err := openAssets(ctx, cfg)
	if err != nil {
		utils.Sugar.Fatalf("open asset store: %v", err)
	}

	verifier, err := utils.NewJWTVerifier(cfg.Auth)
	if err != nil {
		utils.Sugar.Fatalf("token verifier: %v", err)
	}

	var revocations utils.Revocations
	rc, err := utils.NewRedis(ctx, cfg.Redis)
	if err != nil {
		utils.Sugar.Fatalf("redis: %v", err)
	}
	if rc != nil {
		defer rc.Close()
		revocations = utils.NewRedisRevocations(rc)
	} else {
		mem := utils.NewMemoryRevocations()
		sweepCtx, stopSweep := context.WithCancel(ctx)
		defer stopSweep()
		utils.StartRevocationSweeper(sweepCtx, mem, 10*time.Minute)
		revocations = mem
	}

	accessLog, err := utils.NewRollingFileLogger(cfg.Log.GinPath, cfg.Log)
	if err != nil {
		utils.Logger.Warn("gin log file unavailable, using application log", zap.Error(err))
		accessLog = utils.Logger
	}

	r := routes.SetupRouter(routes.Dependencies{
		Config:      cfg,
		Stores:      stores,
		Assets:      assets,
		Verifier:    verifier,
		Revocations: revocations,
		URLs:        storage.NewURLBuilder(cfg.Storage.DeliveryBaseURL, cfg.Storage.Account),
		AccessLog:   accessLog,
	})

	utils.Sugar.Infof("Starting server on port %s (store=%s, storage=%s)", cfg.App.Port, cfg.Store.Driver, cfg.Storage.Driver)
	if err := utils.GraceServer(":"+cfg.App.Port, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}

// openStores connects the configured metadata backend.
func openStores(ctx context.Context, cfg config.AppConfig) (repository.Stores, func(), error) {
	switch cfg.Store.Driver {
	case "mongo", "":
		client, db, err := config.InitMongo(ctx, cfg.Mongo)
		if err != nil {
			return repository.Stores{}, nil, err
		}
		if err := repository.EnsureIndexes(ctx, db, cfg.Mongo.Collections); err != nil {
			_ = client.Disconnect(ctx)
			return repository.Stores{}, nil, err
		}
		closeFn := func() {
			c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(c)
		}
		return repository.NewMongoStores(db, cfg.Mongo.Collections), closeFn, nil
	case "mysql":
		db := config.InitDatabase(repository.SQLModels()...)
		return repository.NewGormStores(db), func() {}, nil
	case "memory":
		utils.Logger.Warn("using in-memory metadata store; data is lost on restart")
		return repository.NewMemoryStores(), func() {}, nil
	}
	return repository.Stores{}, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}

// openAssets connects the configured object store.
func openAssets(ctx context.Context, cfg config.AppConfig) (storage.AssetStore, error) {
	switch cfg.Storage.Driver {
	case "s3", "":
		return storage.NewS3Store(ctx, cfg.Storage, cfg.Ugc.Eager)
	case "memory":
		utils.Logger.Warn("using in-memory asset store; uploads are lost on restart")
		return storage.NewMemoryStore(cfg.Storage.PublicBaseURL), nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}

// seedAdmin creates or replaces a SUPER_ADMIN roster entry with every capability.
func seedAdmin(ctx context.Context, roster repository.RosterStore, args []string) error {
	fs := flag.NewFlagSet("seed-admin", flag.ContinueOnError)
	uid := fs.String("uid", "", "identity provider uid of the account")
	email := fs.String("email", "", "email shown in the console")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *uid == "" || *email == "" {
		return fmt.Errorf("-uid and -email are required")
	}

	user := models.User{
		UID:       *uid,
		Email:     *email,
		Role:      models.RoleSuperAdmin,
		Status:    models.StatusActive,
		Access:    models.FullAccess(),
		CreatedAt: time.Now().UnixMilli(),
	}
	if err := roster.Upsert(ctx, user); err != nil {
		return err
	}
	utils.Sugar.Infof("seeded super admin %s <%s>", user.UID, user.Email)
	return nil
}
