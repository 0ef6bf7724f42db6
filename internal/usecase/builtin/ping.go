package builtin

import "zhatCmd/internal/usecase/commands"

type Ping struct{}

func (Ping) Extend(root *commands.Command) error {
	cmd, err := root.AddCommand("ping")
	if err != nil {
		return err
	}
	cmd.SetDescription("responde pong").ActionFunc(func(inv *commands.Invocation) error {
		return inv.Reply("pong desde " + string(message(inv).Platform))
	})
	return nil
}
