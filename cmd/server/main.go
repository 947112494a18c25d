package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"CardWar/config"
	"CardWar/internal/game/dealer"
	"CardWar/internal/game/manager"
	"CardWar/internal/matchmaker"
	"CardWar/internal/middleware"
	"CardWar/internal/server"
	"CardWar/internal/storage"
	"CardWar/internal/utils"
	"CardWar/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

func main() {
	fs := config.Flags("war-server")
	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		os.Exit(2)
	}
	if _, err := config.Load(fs); err != nil {
		utils.Log.Fatal("load config", "err", err)
	}
	cfg := &config.C
	if err := utils.Init(cfg.Log.Level); err != nil {
		utils.Log.Fatal("bad log level", "level", cfg.Log.Level, "err", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//-------------------------------------------------------
	// 1. Matchmaking queue
	//-------------------------------------------------------
	var repo matchmaker.Repo
	switch cfg.Matchmaker.Backend {
	case "redis":
		if err := storage.InitRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB); err != nil {
			utils.Log.Fatal("redis init failed", "addr", cfg.Redis.Addr, "err", err)
		}
		defer storage.Rdb.Close()
		repo = matchmaker.NewRedisRepo(storage.Rdb, uuid.NewString())
	default:
		repo = matchmaker.NewMemoryRepo()
	}

	//-------------------------------------------------------
	// 2. Game archive
	//-------------------------------------------------------
	var archive storage.Archive = storage.NewMemoryArchive(1000)
	if cfg.Database.DSN != "" {
		if err := storage.InitPostgres(ctx, cfg.Database.DSN); err != nil {
			utils.Log.Fatal("postgres init failed", "err", err)
		}
		defer storage.DB.Close()
		pg, err := storage.NewPostgresArchive(ctx, storage.DB)
		if err != nil {
			utils.Log.Fatal("postgres archive", "err", err)
		}
		archive = pg
	}

	//-------------------------------------------------------
	// 3. Games and matchmaker
	//-------------------------------------------------------
	gameMgr := manager.NewGameManager(dealer.NewDealer(), archive)
	svc := matchmaker.NewService(repo, cfg.Matchmaker.RoomTTL)
	svc.OnRoomReady = func(room *matchmaker.Room) {
		if err := gameMgr.StartRoom(room); err != nil {
			utils.Log.Error("start game failed", "game", room.ID, "err", err)
			for _, p := range room.Players {
				if p != nil {
					_ = p.Conn.Close()
				}
			}
		}
	}
	acceptor := server.NewAcceptor(svc)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return acceptor.ListenAndServe(gctx, cfg.ListenAddr())
	})

	//-------------------------------------------------------
	// 4. Admin API and websocket entry
	//-------------------------------------------------------
	if cfg.Admin.Addr != "" {
		if cfg.Log.Level != "debug" {
			gin.SetMode(gin.ReleaseMode)
		}
		r := gin.Default()
		r.Use(cors.New(cors.Config{
			AllowAllOrigins: true,
			AllowMethods:    []string{"GET", "DELETE", "OPTIONS"},
			AllowHeaders:    []string{"Origin", "Content-Type", "Authorization"},
		}))

		r.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		gh := manager.NewHandler(gameMgr)
		mh := matchmaker.NewHandler(svc)
		r.GET("/stats", gh.Stats)
		r.GET("/games", gh.List)
		r.GET("/games/:id", gh.Get)
		r.GET("/match/queue", mh.Queue)

		if cfg.JWT.Secret != "" {
			auth := r.Group("/", middleware.JwtAuthMiddleware([]byte(cfg.JWT.Secret)))
			auth.DELETE("/games/:id", gh.Kill)
		} else {
			utils.Log.Warn("jwt.secret not set, game kill endpoint disabled")
		}

		if cfg.Websocket.Enabled {
			r.GET("/ws", websocket.ServeWS(gctx, acceptor))
		}

		srv := &http.Server{Addr: cfg.Admin.Addr, Handler: r}
		g.Go(func() error {
			utils.Log.Info("admin api running", "addr", cfg.Admin.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(sctx)
		})
	}

	//-------------------------------------------------------
	// 5. Run until interrupted
	//-------------------------------------------------------
	err := g.Wait()

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if cerr := svc.Close(sctx); cerr != nil {
		utils.Log.Error("drain queue", "err", cerr)
	}
	gameMgr.Shutdown()

	if err != nil {
		utils.Log.Fatal("server stopped", "err", err)
	}
	utils.Log.Info("server stopped", "stats", gameMgr.Stats())
}
