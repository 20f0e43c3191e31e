// Command worldserver boots the authoritative game-server core: load
// config, connect to the durable store and cache, load game-definition
// data, build world state, wire the tick systems, and run the dual TCP/UDP
// listeners until a shutdown signal arrives. Grounded on the teacher's
// cmd/l1jgo/main.go boot sequence (config -> logger -> DB -> repos ->
// data load -> world state -> systems -> listeners -> signal loop).
package main

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/shardwell/worldcore/internal/broadcast"
	"github.com/shardwell/worldcore/internal/config"
	"github.com/shardwell/worldcore/internal/data"
	"github.com/shardwell/worldcore/internal/external"
	"github.com/shardwell/worldcore/internal/game"
	"github.com/shardwell/worldcore/internal/metrics"
	"github.com/shardwell/worldcore/internal/netio"
	"github.com/shardwell/worldcore/internal/persistence"
	"github.com/shardwell/worldcore/internal/queue"
	"github.com/shardwell/worldcore/internal/session"
	"github.com/shardwell/worldcore/internal/tick"
	"github.com/shardwell/worldcore/internal/world"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfgPath := "config/server.toml"
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	log.Info("starting worldserver", zap.String("name", cfg.Server.Name), zap.Int("id", cfg.Server.ID))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := persistence.NewDB(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()
	if err := persistence.RunMigrations(ctx, db.Pool); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	log.Info("durable store ready")

	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	defer rdb.Close()
	log.Info("cache ready", zap.String("addr", cfg.Redis.Addr))

	accountRepo := persistence.NewAccountRepo(db)
	charRepo := persistence.NewCharacterRepo(db)
	invRepo := persistence.NewInventoryRepo(db)
	durableCache := external.NewRedisDurableCache(rdb)
	writeBack := persistence.NewWriteBack(durableCache, charRepo, log)

	secret := os.Getenv(cfg.JWT.SecretEnvVar)
	if secret == "" {
		return fmt.Errorf("jwt secret env var %q is unset", cfg.JWT.SecretEnvVar)
	}
	jwtVerifier := external.NewHMACJWTVerifier([]byte(secret))

	monsters, err := data.LoadMonsterTable("data/monsters.yaml")
	if err != nil {
		return fmt.Errorf("load monsters: %w", err)
	}
	skills, err := data.LoadSkillTable("data/skills.yaml")
	if err != nil {
		return fmt.Errorf("load skills: %w", err)
	}
	loot, err := data.LoadLootTable("data/loot.yaml")
	if err != nil {
		return fmt.Errorf("load loot: %w", err)
	}
	spawns, err := data.LoadSpawnTable("data/spawns.yaml")
	if err != nil {
		return fmt.Errorf("load spawns: %w", err)
	}
	log.Info("game data loaded",
		zap.Int("monsters", monsters.Count()), zap.Int("skills", skills.Count()),
		zap.Int("spawns", spawns.Count()))

	state := world.NewState(cfg.World.ChannelCapacity, cfg.World.SpatialCellSize, cfg.World.MonsterIDBase)
	for _, z := range cfg.World.Zones {
		state.AddZone(world.ZoneDef{
			ID:   z.ID,
			Name: z.Name,
			BoundsMin: world.Vec3{X: z.BoundsMinX, Y: z.BoundsMinY, Z: z.BoundsMinZ},
			BoundsMax: world.Vec3{X: z.BoundsMaxX, Y: z.BoundsMaxY, Z: z.BoundsMaxZ},
			DefaultSpawn: world.Vec3{X: z.SpawnX, Y: z.SpawnY, Z: z.SpawnZ},
		})
	}
	spawned := spawnMonsters(state, monsters, spawns, log)
	log.Info("monsters spawned", zap.Int("count", spawned))

	q := queue.New(cfg.Network.InQueueSize, cfg.Network.InQueueSize/2, log)
	sessions := session.NewRegistry()
	bus := tick.NewBus()

	reg := prometheus.NewRegistry()
	observer := metrics.NewObserver(reg)

	// deps.Broadcast is assigned after construction: the broadcast service's
	// SessionLookup closure needs to reference the very Deps instance whose
	// field it will be stored in.
	deps := game.NewDeps(ctx, state, q, skills, monsters, loot, sessions, bus, nil,
		writeBack, invRepo, charRepo, accountRepo, jwtVerifier, log,
		cfg.World.MovementLatencyGracePct, cfg.World.NPCInteractRange,
		time.Duration(cfg.Persistence.RAMToCacheSec)*time.Second,
		time.Duration(cfg.Persistence.CacheToStoreSec)*time.Second,
		time.Duration(cfg.World.ChannelSwitchCooldownSec)*time.Second,
		cfg.World.StartZoneID)
	deps.Broadcast = broadcast.NewService(deps.LookupPlayerSink, game.Encode)

	runner := tick.NewRunner(log, observer)
	runner.Register(game.NewInputSystem(deps))
	runner.Register(game.NewAISystem(deps))
	runner.Register(game.NewAutoAttackSystem(deps))
	runner.Register(game.NewMovementBroadcastSystem(deps))
	runner.Register(game.NewPersistenceSystem(deps))
	runner.Register(game.NewBroadcastFlushSystem(deps))

	tcpServer, err := netio.NewServer(cfg.Network.TCPBindAddress, cfg.Network.MaxConnectionsTotal, cfg.Network.MaxConnectionsPerIP, q, log)
	if err != nil {
		return fmt.Errorf("tcp server: %w", err)
	}
	go tcpServer.AcceptLoop()
	go acceptTCPSessions(tcpServer, deps)

	udpServer, err := netio.NewUDPServer(cfg.Network.UDPBindAddress, sessions, q, cfg.Network.UDPMaxPacketsPerIPPS, log)
	if err != nil {
		return fmt.Errorf("udp server: %w", err)
	}
	go udpServer.ReceiveLoop()

	metricsSrv := &http.Server{Addr: ":9090", Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{})}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("metrics server failed", zap.Error(err))
		}
	}()

	log.Info("listening",
		zap.String("tcp", tcpServer.Addr().String()),
		zap.String("udp", udpServer.LocalAddr().String()),
		zap.Duration("tick_interval", cfg.Network.TickInterval()))

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Network.TickInterval())
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			runner.Tick(now, cfg.Network.TickInterval())
			observer.ObserveQueueDepth(q.Depth())
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			tcpServer.Shutdown()
			udpServer.Stop()
			_ = metricsSrv.Close()
			log.Info("worldserver stopped")
			return nil
		}
	}
}

// acceptTCPSessions bridges the accept loop's channels into Deps: newly
// accepted connections are registered for login/account lookup, and dead
// sessions are queued for the tick loop's disconnect handling.
func acceptTCPSessions(srv *netio.Server, deps *game.Deps) {
	newConns := srv.NewSessions()
	dead := srv.DeadSessions()
	for {
		select {
		case sess, ok := <-newConns:
			if !ok {
				return
			}
			deps.RegisterTCPSession(sess)
		case id, ok := <-dead:
			if !ok {
				return
			}
			deps.QueueDisconnect(id)
		}
	}
}

// spawnMonsters places Count copies of each loaded spawn definition into
// their configured zone's primary channel, jittered within SpawnRadius —
// grounded on the teacher's spawnNpcs helper.
func spawnMonsters(state *world.State, monsters *data.MonsterTable, spawns *data.SpawnTable, log *zap.Logger) int {
	total := 0
	for _, sp := range spawns.All() {
		def := monsters.Get(sp.DefinitionID)
		if def == nil {
			log.Warn("spawn: unknown monster definition", zap.Int32("definition_id", sp.DefinitionID))
			continue
		}
		for i := 0; i < sp.Count; i++ {
			pos := world.Vec3{X: sp.X, Y: sp.Y, Z: sp.Z}
			if sp.SpawnRadius > 0 {
				pos.X += (rand.Float64()*2 - 1) * sp.SpawnRadius
				pos.Z += (rand.Float64()*2 - 1) * sp.SpawnRadius
			}
			m := world.NewMonster(state.NextMonsterID(), def.DefinitionID, def.Name, pos, def.MaxHP)
			m.Attack = def.Attack
			m.Defense = def.Defense
			m.Level = def.Level
			m.XPReward = def.XPReward
			m.AggroRange = def.AggroRange
			m.AttackRange = def.AttackRange
			m.AttackSpeedMs = def.AttackSpeedMs
			m.MoveSpeed = def.MoveSpeed
			m.RespawnMs = def.RespawnMs
			m.LeashRange = def.LeashRange
			m.LootTableID = def.LootTableID
			m.SpawnRadius = sp.SpawnRadius

			if err := state.PlaceMonster(m, sp.ZoneID, 0); err != nil {
				log.Warn("spawn: place monster failed", zap.String("zone", sp.ZoneID), zap.Error(err))
				continue
			}
			total++
		}
	}
	return total
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	return zapCfg.Build()
}
