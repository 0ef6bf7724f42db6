// Package runtime arma el bot completo a partir de la configuración.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/log"

	"zhatCmd/internal/app"
	"zhatCmd/internal/app/events"
	ttsruntime "zhatCmd/internal/app/tts/runner"
	"zhatCmd/internal/domain"
	"zhatCmd/internal/infrastructure/config"
	"zhatCmd/internal/infrastructure/logging"
	sqlitestorage "zhatCmd/internal/infrastructure/persistence/sqlite"
	ws "zhatCmd/internal/interface/api/ws"
	"zhatCmd/internal/interface/outs"
	"zhatCmd/internal/usecase/builtin"
	"zhatCmd/internal/usecase/catalog"
	"zhatCmd/internal/usecase/commands"
	"zhatCmd/internal/usecase/custom"
	"zhatCmd/internal/usecase/handle_message"
	"zhatCmd/internal/usecase/stream"
	ttsusecase "zhatCmd/internal/usecase/tts"
)

type Options struct {
	// EnvFiles se cargan antes del entorno; vacío carga .env.
	EnvFiles []string
	// LogOutput por defecto es os.Stderr.
	LogOutput io.Writer
	// Player reemplaza la salida de audio (tests, servidores sin audio).
	Player ttsruntime.Player
}

type Runtime struct {
	ctx    context.Context
	cancel context.CancelFunc
	cfg    *config.Config
	logger *log.Logger

	store      *sqlitestorage.Store
	bus        *events.Bus
	multiOut   *outs.MultiSender
	resolver   *stream.Resolver
	program    *commands.Command
	interactor *handle_message.Interactor
	platform   *app.PlatformManager
	wsServer   *ws.Server
	ttsServ    *ttsusecase.Service
	ttsRunner  *ttsruntime.Runner

	wg      sync.WaitGroup
	started bool
}

func Start(ctx context.Context, opts Options) (*Runtime, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(opts.EnvFiles...)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logOut := opts.LogOutput
	if logOut == nil {
		logOut = os.Stderr
	}
	logger := logging.New(logOut, cfg.LogLevel)

	store, err := sqlitestorage.NewStore(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: %w", err)
	}

	runtimeCtx, cancel := context.WithCancel(ctx)
	run := &Runtime{
		ctx:      runtimeCtx,
		cancel:   cancel,
		cfg:      cfg,
		logger:   logger,
		store:    store,
		bus:      events.NewBus(logger.WithPrefix("bus")),
		multiOut: outs.NewMultiSender(),
		resolver: stream.NewResolver(logger.WithPrefix("stream")),
	}

	if err := run.build(opts); err != nil {
		cancel()
		_ = store.Close()
		return nil, err
	}

	run.wg.Add(1)
	go func() {
		defer run.wg.Done()
		if err := run.wsServer.Start(runtimeCtx); err != nil {
			logger.Error("ws server error", "err", err)
		}
	}()

	run.ttsRunner.Start(runtimeCtx)

	if err := run.platform.Start(); err != nil {
		logger.Warn("algunas plataformas no arrancaron", "err", err)
	}

	run.started = true
	logger.Info("bot iniciado", "name", cfg.BotName, "prefixes", cfg.Prefixes)
	return run, nil
}

func (r *Runtime) build(opts Options) error {
	cfg := r.cfg

	r.ttsServ = ttsusecase.NewService(r.store, ttsusecase.WithEnabledDefault(cfg.TTSEnabled))

	r.program = commands.New(cfg.BotName, commands.Config{
		AllowUnknownOption: cfg.AllowUnknownOptions,
		ShowHelpOnError:    cfg.ShowHelpOnError,
		ShowHelpOnEmpty:    cfg.ShowHelpOnEmpty,
	}).SetPrefixes(cfg.Prefixes...)

	customManager, err := custom.NewManager(r.ctx, r.store, r.logger.WithPrefix("custom"))
	if err != nil {
		return fmt.Errorf("custom commands: %w", err)
	}

	r.wsServer = ws.NewServer(ws.Config{
		Addr:    cfg.WSAddr,
		Catalog: catalog.NewService(r.program, customManager),
		TTS:     r.ttsServ,
		Stream:  r.resolver,
		Logger:  r.logger.WithPrefix("ws"),
	})

	r.ttsRunner = ttsruntime.New(ttsruntime.Config{
		Synth:  r.ttsServ,
		Player: opts.Player,
		Events: r.wsServer,
		Bus:    r.bus,
		Logger: r.logger.WithPrefix("tts"),
	})
	r.ttsServ.SetQueue(r.ttsRunner)
	r.wsServer.SetTTSStatusProvider(r.ttsRunner)

	if err := r.program.Use(
		builtin.Ping{},
		builtin.NewStream(r.resolver, r.bus),
		builtin.NewTTS(r.ttsServ, r.ttsRunner),
		builtin.NewCustomCommands(customManager),
		customManager,
	); err != nil {
		return fmt.Errorf("commands: %w", err)
	}

	r.interactor = handle_message.NewInteractor(r.program, r.multiOut, r.bus, r.logger.WithPrefix("commands"))

	r.multiOut.Register(domain.PlatformWeb, r.wsServer)
	r.wsServer.SetHandler(r.interactor.Handle)
	r.wsServer.Forward(r.ctx, r.bus, ws.DefaultTopics...)

	r.platform = app.NewPlatformManager(app.ManagerConfig{
		Context:  r.ctx,
		Config:   cfg,
		Resolver: r.resolver,
		MultiOut: r.multiOut,
		Logger:   r.logger,
	})
	r.platform.SetHandler(r.interactor.Handle)
	return nil
}

func (r *Runtime) Stop() error {
	if r == nil || !r.started {
		return nil
	}
	r.cancel()
	r.platform.Shutdown()
	var errs []error
	if err := r.ttsRunner.Close(); err != nil {
		errs = append(errs, err)
	}
	r.wg.Wait()
	r.bus.Close()
	if err := r.store.Close(); err != nil {
		errs = append(errs, err)
	}
	r.started = false
	r.logger.Info("bot apagado")
	return errors.Join(errs...)
}

// DispatchMessage entrega un mensaje como si viniera de un chat.
func (r *Runtime) DispatchMessage(ctx context.Context, msg domain.Message) error {
	if r == nil || r.interactor == nil {
		return fmt.Errorf("dispatcher unavailable")
	}
	if ctx == nil {
		ctx = r.ctx
	}
	return r.interactor.Handle(ctx, msg)
}

func (r *Runtime) Program() *commands.Command { return r.program }
func (r *Runtime) Bus() *events.Bus            { return r.bus }
func (r *Runtime) Config() *config.Config      { return r.cfg }
