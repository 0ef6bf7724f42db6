// Package catalog describe los comandos disponibles (los del árbol y los
// personalizados) para la consola web.
package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/samber/lo"

	"zhatCmd/internal/domain"
	"zhatCmd/internal/usecase/commands"
	"zhatCmd/internal/usecase/custom"
)

const (
	SourceBuiltin = "builtin"
	SourceCustom  = "custom"
)

var ErrUnavailable = errors.New("commands service unavailable")

type OptionDTO struct {
	Flags       string `json:"flags"`
	Description string `json:"description,omitempty"`
}

type CommandDTO struct {
	Name        string                     `json:"name"`
	Response    string                     `json:"response,omitempty"`
	Aliases     []string                   `json:"aliases"`
	Platforms   []string                   `json:"platforms"`
	Permissions []domain.CommandAccessRole `json:"permissions"`
	UpdatedAt   string                     `json:"updated_at,omitempty"`
	Source      string                     `json:"source"`
	Editable    bool                       `json:"editable"`
	Description string                     `json:"description,omitempty"`
	Usage       string                     `json:"usage,omitempty"`
	Options     []OptionDTO                `json:"options,omitempty"`
	Subcommands []CommandDTO               `json:"subcommands,omitempty"`
}

type CommandMutationDTO struct {
	Name        string                      `json:"name"`
	Response    *string                     `json:"response,omitempty"`
	Aliases     *[]string                   `json:"aliases,omitempty"`
	Platforms   *[]string                   `json:"platforms,omitempty"`
	Permissions *[]domain.CommandAccessRole `json:"permissions,omitempty"`
}

type Service struct {
	root    *commands.Command
	manager *custom.Manager
	prefix  string
}

// NewService describe root; prefix se antepone en las líneas de uso.
func NewService(root *commands.Command, manager *custom.Manager) *Service {
	return &Service{
		root:    root,
		manager: manager,
		prefix:  lo.FirstOr(root.Prefixes(), ""),
	}
}

func (s *Service) List(context.Context) []CommandDTO {
	out := s.describeChildren(s.root, s.prefix)
	if s.manager == nil {
		return out
	}
	for _, cmd := range s.manager.List() {
		out = append(out, fromCustom(cmd, s.prefix))
	}
	return out
}

func (s *Service) Upsert(ctx context.Context, input CommandMutationDTO) (CommandDTO, bool, error) {
	if s.manager == nil {
		return CommandDTO{}, false, ErrUnavailable
	}
	result, created, err := s.manager.Upsert(ctx, toUpdate(input))
	if err != nil {
		return CommandDTO{}, false, err
	}
	return fromCustom(result, s.prefix), created, nil
}

func (s *Service) Delete(ctx context.Context, name string) (bool, error) {
	if s.manager == nil {
		return false, ErrUnavailable
	}
	return s.manager.Delete(ctx, name)
}

func (s *Service) describeChildren(node *commands.Command, path string) []CommandDTO {
	children := lo.Reject(node.Children(), func(c *commands.Command, _ int) bool {
		return c.Implicit()
	})
	return lo.Map(children, func(c *commands.Command, _ int) CommandDTO {
		return s.describe(c, path)
	})
}

func (s *Service) describe(c *commands.Command, path string) CommandDTO {
	aliases := []string{}
	if c.Alias() != "" {
		aliases = append(aliases, c.Alias())
	}
	full := strings.TrimSpace(path + c.Name())
	if path != s.prefix {
		full = path + " " + c.Name()
	}
	return CommandDTO{
		Name:        c.Name(),
		Aliases:     aliases,
		Platforms:   []string{},
		Permissions: []domain.CommandAccessRole{},
		Source:      SourceBuiltin,
		Description: c.Description(),
		Usage:       full + " " + c.Usage(),
		Options: lo.Map(c.Options(), func(o *commands.Option, _ int) OptionDTO {
			return OptionDTO{Flags: o.Flags(), Description: o.Description()}
		}),
		Subcommands: s.describeChildren(c, full),
	}
}

func fromCustom(cmd *domain.CustomCommand, prefix string) CommandDTO {
	updated := ""
	if !cmd.UpdatedAt.IsZero() {
		updated = cmd.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return CommandDTO{
		Name:     cmd.Name,
		Response: cmd.Response,
		Aliases:  append([]string{}, cmd.Aliases...),
		Platforms: lo.Map(cmd.Platforms, func(p domain.Platform, _ int) string {
			return string(p)
		}),
		Permissions: append([]domain.CommandAccessRole{}, cmd.Permissions...),
		UpdatedAt:   updated,
		Source:      SourceCustom,
		Editable:    true,
		Usage:       prefix + cmd.Name,
	}
}

func toUpdate(payload CommandMutationDTO) custom.Update {
	in := custom.Update{Name: payload.Name, Response: payload.Response}
	if payload.Aliases != nil {
		in.Aliases, in.HasAliases = *payload.Aliases, true
	}
	if payload.Platforms != nil {
		in.HasPlatforms = true
		in.Platforms = lo.Map(*payload.Platforms, func(p string, _ int) domain.Platform {
			return domain.Platform(p)
		})
	}
	if payload.Permissions != nil {
		in.Permissions, in.HasPermissions = *payload.Permissions, true
	}
	return in
}
