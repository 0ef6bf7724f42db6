package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOption(t *testing.T) {
	tests := []struct {
		flags     string
		short     string
		long      string
		name      string
		required  bool
		optional  bool
		negatable bool
	}{
		{"-c, --config <path>", "-c", "--config", "config", true, false, true},
		{"--config <path>", "", "--config", "config", true, false, true},
		{"-p, --pepper", "-p", "--pepper", "pepper", false, false, true},
		{"-C, --no-cache", "-C", "--no-cache", "cache", false, false, false},
		{"-o, --output [file]", "-o", "--output", "output", false, true, true},
		{"-v|--verbose", "-v", "--verbose", "verbose", false, false, true},
		{"-d <minutes>", "", "-d", "d", true, false, true},
	}

	for _, tc := range tests {
		t.Run(tc.flags, func(t *testing.T) {
			o, err := NewOption(tc.flags, "")
			require.NoError(t, err)
			assert.Equal(t, tc.short, o.Short())
			assert.Equal(t, tc.long, o.Long())
			assert.Equal(t, tc.name, o.Name())
			assert.Equal(t, tc.required, o.Required())
			assert.Equal(t, tc.optional, o.Optional())
			assert.Equal(t, !tc.required && !tc.optional, o.IsBool())
			assert.Equal(t, tc.negatable, o.Negatable())
			assert.Equal(t, tc.flags, o.Flags())
		})
	}
}

func TestNewOptionRejectsEmptyFlags(t *testing.T) {
	_, err := NewOption("   ", "nothing")
	require.ErrorIs(t, err, ErrEmptyFlags)

	root := New("bot", DefaultConfig())
	require.Panics(t, func() { root.Option("", "nothing") })
}

func TestOptionIs(t *testing.T) {
	o, err := NewOption("-c, --config <path>", "")
	require.NoError(t, err)

	assert.True(t, o.Is("-c"))
	assert.True(t, o.Is("--config"))
	assert.False(t, o.Is("--conf"))
	assert.False(t, o.Is(""))
}

func TestParseSignature(t *testing.T) {
	args, err := ParseSignature("<cmd> [other...]")
	require.NoError(t, err)
	assert.Equal(t, []Argument{
		{Name: "cmd", Required: true},
		{Name: "other", Variadic: true},
	}, args)

	args, err = ParseSignature(`<"the command"> ['extra notes']`)
	require.NoError(t, err)
	assert.Equal(t, []Argument{
		{Name: "the command", Required: true},
		{Name: "extra notes"},
	}, args)

	args, err = ParseSignature("")
	require.NoError(t, err)
	assert.Empty(t, args)
}

func TestParseSignatureVariadicMustBeLast(t *testing.T) {
	_, err := ParseSignature("[files...] <dest>")
	require.ErrorIs(t, err, ErrVariadicNotLast)

	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "files", schemaErr.Subject)

	root := New("bot", DefaultConfig())
	_, err = root.AddCommand("cp [files...] <dest>")
	require.ErrorIs(t, err, ErrVariadicNotLast)
	assert.Empty(t, root.Children())

	require.Panics(t, func() { root.Command("mv [files...] <dest>") })
}

func TestArgumentHumanName(t *testing.T) {
	assert.Equal(t, "<dir>", Argument{Name: "dir", Required: true}.HumanName())
	assert.Equal(t, "[name]", Argument{Name: "name"}.HumanName())
	assert.Equal(t, "[otherDirs...]", Argument{Name: "otherDirs", Variadic: true}.HumanName())
	assert.Equal(t, "<dirs...>", Argument{Name: "dirs", Required: true, Variadic: true}.HumanName())
}

func TestOptionValues(t *testing.T) {
	t.Run("negation defaults to true", func(t *testing.T) {
		root := New("bot", DefaultConfig())
		root.Option("-C, --no-cache", "disable cache")

		require.NoError(t, root.Parse(t.Context(), "", nil))
		assert.Equal(t, BoolValue(true), root.Value("cache"))

		require.NoError(t, root.Parse(t.Context(), "-C", nil))
		assert.Equal(t, BoolValue(false), root.Value("cache"))
	})

	t.Run("pepper and cheese", func(t *testing.T) {
		root := New("pizza", DefaultConfig())
		root.Option("-p, --pepper", "add pepper")
		root.Option("-C, --no-cheese", "remove cheese")

		assert.Equal(t, map[string]Value{"pepper": {}, "cheese": BoolValue(true)}, root.Opts())

		require.NoError(t, root.Parse(t.Context(), "-p", nil))
		assert.Equal(t, map[string]Value{"pepper": BoolValue(true), "cheese": BoolValue(true)}, root.Opts())

		require.NoError(t, root.Parse(t.Context(), "-p --no-cheese", nil))
		assert.Equal(t, map[string]Value{"pepper": BoolValue(true), "cheese": BoolValue(false)}, root.Opts())
	})

	t.Run("required argument", func(t *testing.T) {
		root := New("bot", DefaultConfig())
		root.Option("-c, --config <path>", "config file")

		require.NoError(t, root.Parse(t.Context(), "-c foo.json", nil))
		assert.Equal(t, StringValue("foo.json"), root.Value("config"))

		require.NoError(t, root.Parse(t.Context(), "--config=bar.json", nil))
		assert.Equal(t, StringValue("bar.json"), root.Value("config"))
	})

	t.Run("required argument with default", func(t *testing.T) {
		root := New("bot", DefaultConfig())
		root.Option("-l, --lang <code>", "language", Default(StringValue("es")))
		assert.Equal(t, StringValue("es"), root.Value("lang"))
	})

	t.Run("optional argument", func(t *testing.T) {
		root := New("bot", DefaultConfig())
		root.Option("-o, --output [file]", "output file")
		require.NoError(t, root.Parse(t.Context(), "-o", nil))
		assert.Equal(t, BoolValue(true), root.Value("output"))

		root = New("bot", DefaultConfig())
		root.Option("-o, --output [file]", "output file")
		require.NoError(t, root.Parse(t.Context(), "-o out.txt", nil))
		assert.Equal(t, StringValue("out.txt"), root.Value("output"))

		root = New("bot", DefaultConfig())
		root.Option("-o, --output [file]", "output file")
		require.NoError(t, root.Parse(t.Context(), "-o -", nil))
		assert.Equal(t, StringValue("-"), root.Value("output"))
	})

	t.Run("coercion", func(t *testing.T) {
		root := New("bot", DefaultConfig())
		root.Option("-n, --count <n>", "how many", WithCoerce(Number))
		root.Option("-t, --tag <tag>", "repeatable", WithCoerce(Collect))
		root.Option("-l, --list <items>", "comma separated", WithCoerce(List))

		require.NoError(t, root.Parse(t.Context(), "-n 3 -t a --tag b -l x,,y", nil))
		assert.Equal(t, 3.0, root.Value("count").Number())
		assert.Equal(t, []string{"a", "b"}, root.Value("tag").Strings())
		assert.Equal(t, []string{"x", "y"}, root.Value("list").Strings())
	})
}

func TestValueConversions(t *testing.T) {
	assert.False(t, Value{}.IsSet())
	assert.False(t, Value{}.Bool())
	assert.Equal(t, "", Value{}.String())

	assert.True(t, StringValue("x").Bool())
	assert.Equal(t, 2.5, StringValue("2.5").Number())
	assert.Equal(t, "2.5", NumberValue(2.5).String())
	assert.Equal(t, "true", BoolValue(true).String())
	assert.Equal(t, "a,b", StringsValue("a", "b").String())
	assert.Equal(t, []string{"solo"}, StringValue("solo").Strings())
	assert.Equal(t, 1.0, BoolValue(true).Number())
}
