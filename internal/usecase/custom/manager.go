// Package custom guarda los comandos de texto que los admins crean desde el
// chat y los responde a través del comodín del árbol de comandos.
package custom

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/samber/lo"

	"zhatCmd/internal/domain"
	"zhatCmd/internal/infrastructure/logging"
	"zhatCmd/internal/usecase/commands"
)

var (
	ErrInvalidName     = errors.New("nombre inválido")
	ErrEmptyResponse   = errors.New("el contenido del comando es obligatorio")
	ErrExists          = errors.New("ya existe un comando con ese nombre")
	ErrNotFound        = errors.New("comando no encontrado")
	ErrUnknownPlatform = errors.New("plataforma desconocida")
	ErrUnknownRole     = errors.New("rol desconocido")
	ErrConflict        = errors.New("conflicto de nombres")
)

var knownPlatforms = []domain.Platform{domain.PlatformTwitch, domain.PlatformKick, domain.PlatformWeb}

var knownRoles = []domain.CommandAccessRole{
	domain.CommandAccessEveryone,
	domain.CommandAccessFollowers,
	domain.CommandAccessSubscribers,
	domain.CommandAccessModerators,
	domain.CommandAccessVIPs,
	domain.CommandAccessOwner,
}

type Manager struct {
	repo   domain.CustomCommandRepository
	logger *log.Logger

	mu          sync.RWMutex
	commands    map[string]*domain.CustomCommand
	aliasToName map[string]string
	isReserved  func(string) bool
}

// Update describe un cambio parcial: los campos Has* indican qué listas
// reemplazar.
type Update struct {
	Name           string
	Response       *string
	Aliases        []string
	HasAliases     bool
	Platforms      []domain.Platform
	HasPlatforms   bool
	Permissions    []domain.CommandAccessRole
	HasPermissions bool
}

type mode int

const (
	modeUpsert mode = iota
	modeCreate
	modeUpdate
)

// NewManager carga los comandos guardados en repo (puede ser nil).
func NewManager(ctx context.Context, repo domain.CustomCommandRepository, logger *log.Logger) (*Manager, error) {
	mgr := &Manager{
		repo:        repo,
		logger:      logging.Or(logger),
		commands:    make(map[string]*domain.CustomCommand),
		aliasToName: make(map[string]string),
	}

	if repo == nil {
		return mgr, nil
	}

	list, err := repo.ListCustomCommands(ctx)
	if err != nil {
		return nil, fmt.Errorf("custom manager: list: %w", err)
	}

	for _, cmd := range list {
		if cmd == nil {
			continue
		}
		name := normalizeName(cmd.Name)
		if name == "" {
			continue
		}
		mgr.commands[name] = clone(cmd)
	}
	mgr.rebuildAliasesLocked()
	mgr.logger.Debug("custom commands loaded", "count", len(mgr.commands))

	return mgr, nil
}

// Extend instala el comodín en la raíz y reserva los nombres que el árbol ya
// atiende.
func (m *Manager) Extend(root *commands.Command) error {
	m.SetReservedChecker(root.Handles)
	root.Fallback(commands.HandlerFunc(m.handleFallback))
	return nil
}

func (m *Manager) handleFallback(inv *commands.Invocation) error {
	if len(inv.Rest) == 0 {
		return nil
	}
	msg, ok := domain.MessageFrom(inv.Meta)
	if !ok {
		return nil
	}
	_, err := m.TryHandle(inv.Context, inv.Rest[0], msg, inv.Reply)
	return err
}

func (m *Manager) SetReservedChecker(fn func(string) bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.isReserved = fn
}

func (m *Manager) Find(trigger string) *domain.CustomCommand {
	key := normalizeName(trigger)
	if key == "" {
		return nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if cmd, ok := m.commands[key]; ok {
		return clone(cmd)
	}
	if canonical, ok := m.aliasToName[key]; ok {
		return clone(m.commands[canonical])
	}
	return nil
}

// List devuelve copias ordenadas por nombre.
func (m *Manager) List() []*domain.CustomCommand {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := lo.Map(lo.Values(m.commands), func(cmd *domain.CustomCommand, _ int) *domain.CustomCommand {
		return clone(cmd)
	})
	slices.SortFunc(out, func(a, b *domain.CustomCommand) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

// TryHandle responde trigger si existe un comando para la plataforma del
// mensaje. Devuelve true si el comando existe aunque el usuario no tenga
// permiso.
func (m *Manager) TryHandle(ctx context.Context, trigger string, msg domain.Message, reply func(string) error) (bool, error) {
	cmd := m.Find(trigger)
	if cmd == nil {
		return false, nil
	}
	if len(cmd.Platforms) > 0 && !lo.Contains(cmd.Platforms, msg.Platform) {
		return false, nil
	}
	if strings.TrimSpace(cmd.Response) == "" {
		return false, nil
	}
	if !isAllowed(cmd.Permissions, msg) {
		m.logger.Debug("custom command denied", "name", cmd.Name, "user", msg.Username, "platform", msg.Platform)
		return true, nil
	}
	return true, reply(cmd.Response)
}

func (m *Manager) Create(ctx context.Context, in Update) (*domain.CustomCommand, error) {
	cmd, _, err := m.apply(ctx, in, modeCreate)
	return cmd, err
}

func (m *Manager) Update(ctx context.Context, in Update) (*domain.CustomCommand, error) {
	cmd, _, err := m.apply(ctx, in, modeUpdate)
	return cmd, err
}

// Upsert crea o actualiza; created indica cuál de las dos pasó.
func (m *Manager) Upsert(ctx context.Context, in Update) (*domain.CustomCommand, bool, error) {
	return m.apply(ctx, in, modeUpsert)
}

func (m *Manager) apply(ctx context.Context, in Update, md mode) (*domain.CustomCommand, bool, error) {
	name := normalizeName(in.Name)
	if name == "" || strings.ContainsAny(name, " \t") {
		return nil, false, ErrInvalidName
	}

	platforms, err := normalizePlatforms(in.Platforms)
	if err != nil {
		return nil, false, err
	}
	roles, err := normalizeRoles(in.Permissions)
	if err != nil {
		return nil, false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	current := m.commands[name]
	created := current == nil
	switch {
	case md == modeCreate && !created:
		return nil, false, ErrExists
	case md == modeUpdate && created:
		return nil, false, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	next := &domain.CustomCommand{Name: name}
	if !created {
		next = clone(current)
	}

	if in.Response != nil {
		next.Response = strings.TrimSpace(*in.Response)
	}
	if next.Response == "" {
		return nil, false, ErrEmptyResponse
	}

	aliases := next.Aliases
	if in.HasAliases {
		aliases = normalizeAliases(in.Aliases, name)
	}
	if err := m.ensureNoConflictsLocked(name, created, aliases, in.HasAliases); err != nil {
		return nil, false, err
	}

	next.Aliases = aliases
	if in.HasPlatforms {
		next.Platforms = platforms
	}
	if in.HasPermissions {
		next.Permissions = roles
	}
	next.UpdatedAt = time.Now()

	if m.repo != nil {
		if err := m.repo.UpsertCustomCommand(ctx, next); err != nil {
			return nil, false, fmt.Errorf("custom manager: save: %w", err)
		}
	}

	m.commands[name] = clone(next)
	m.rebuildAliasesLocked()

	m.logger.Info("custom command saved", "name", name, "created", created)
	return clone(next), created, nil
}

// Delete quita un comando por nombre o alias. Devuelve false si no existía.
func (m *Manager) Delete(ctx context.Context, name string) (bool, error) {
	key := normalizeName(name)
	if key == "" {
		return false, ErrInvalidName
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if canonical, ok := m.aliasToName[key]; ok {
		key = canonical
	}
	if _, ok := m.commands[key]; !ok {
		return false, nil
	}

	if m.repo != nil {
		if err := m.repo.DeleteCustomCommand(ctx, key); err != nil {
			return false, fmt.Errorf("custom manager: delete: %w", err)
		}
	}

	delete(m.commands, key)
	m.rebuildAliasesLocked()
	m.logger.Info("custom command deleted", "name", key)
	return true, nil
}

func (m *Manager) rebuildAliasesLocked() {
	m.aliasToName = make(map[string]string)
	for name, cmd := range m.commands {
		for _, alias := range cmd.Aliases {
			if key := normalizeName(alias); key != "" {
				m.aliasToName[key] = name
			}
		}
	}
}

// ConflictError es un choque de nombre o alias; errors.Is la reconoce como
// ErrConflict.
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string        { return e.Msg }
func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

func conflict(format string, args ...any) error {
	return &ConflictError{Msg: fmt.Sprintf(format, args...)}
}

func (m *Manager) ensureNoConflictsLocked(name string, created bool, aliases []string, hasAliases bool) error {
	if created && m.isReserved != nil && m.isReserved(name) {
		return conflict("el nombre %q está reservado por otro comando", name)
	}
	if created {
		if owner, ok := m.aliasToName[name]; ok {
			return conflict("el nombre %q ya es alias de %s", name, owner)
		}
	}
	if !hasAliases {
		return nil
	}

	for _, alias := range aliases {
		if m.isReserved != nil && m.isReserved(alias) {
			return conflict("el alias %q está reservado por otro comando", alias)
		}
		if _, ok := m.commands[alias]; ok {
			return conflict("el alias %q coincide con otro comando", alias)
		}
		if owner, ok := m.aliasToName[alias]; ok && owner != name {
			return conflict("el alias %q ya está en uso", alias)
		}
	}
	return nil
}

func isAllowed(roles []domain.CommandAccessRole, msg domain.Message) bool {
	if len(roles) == 0 {
		return true
	}
	return lo.SomeBy(roles, func(role domain.CommandAccessRole) bool {
		switch role {
		case domain.CommandAccessEveryone:
			return true
		case domain.CommandAccessSubscribers:
			return msg.IsSubscriber
		case domain.CommandAccessModerators:
			return msg.IsPlatformMod || msg.IsPlatformAdmin || msg.IsPlatformOwner
		case domain.CommandAccessVIPs:
			return msg.IsPlatformVip
		case domain.CommandAccessOwner:
			return msg.IsPlatformOwner
		default:
			// followers: ninguna plataforma nos dice si el autor sigue el canal
			return false
		}
	})
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func normalizeAliases(values []string, name string) []string {
	aliases := lo.Uniq(lo.Compact(lo.Map(values, func(v string, _ int) string {
		return normalizeName(v)
	})))
	return lo.Without(aliases, name)
}

func normalizePlatforms(values []domain.Platform) ([]domain.Platform, error) {
	out := lo.Uniq(lo.Compact(lo.Map(values, func(v domain.Platform, _ int) domain.Platform {
		return domain.Platform(normalizeName(string(v)))
	})))
	for _, p := range out {
		if !lo.Contains(knownPlatforms, p) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownPlatform, p)
		}
	}
	return out, nil
}

func normalizeRoles(values []domain.CommandAccessRole) ([]domain.CommandAccessRole, error) {
	out := lo.Uniq(lo.Compact(lo.Map(values, func(v domain.CommandAccessRole, _ int) domain.CommandAccessRole {
		return domain.CommandAccessRole(normalizeName(string(v)))
	})))
	for _, r := range out {
		if !lo.Contains(knownRoles, r) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownRole, r)
		}
	}
	return out, nil
}

func clone(cmd *domain.CustomCommand) *domain.CustomCommand {
	if cmd == nil {
		return nil
	}
	c := *cmd
	c.Aliases = slices.Clone(cmd.Aliases)
	c.Platforms = slices.Clone(cmd.Platforms)
	c.Permissions = slices.Clone(cmd.Permissions)
	return &c
}
