package tree_test

import (
	"encoding/json"
	"testing"

	"github.com/claytonlovin/Botinho/internal/tree"
	"github.com/claytonlovin/Botinho/pkg/domain"
	"github.com/claytonlovin/Botinho/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultTree(t *testing.T) {
	tr, err := tree.Load(tree.DefaultDocument(), nil)
	require.NoError(t, err)

	assert.Equal(t, "Fluxo principal", tr.Title)
	assert.Equal(t, "root", tr.Root.Base().ID)

	root, ok := tr.Root.(*domain.OptionsNode)
	require.True(t, ok, "root should be an options node")
	require.Len(t, root.Choices, 4)

	ai, ok := root.Find("1")
	require.True(t, ok)
	assert.Equal(t, domain.ActionHandToAI, ai.Action)
	handoff, ok := ai.Target.(*domain.HandoffNode)
	require.True(t, ok)
	assert.Same(t, tr.Root, handoff.Next, "handoff resumes at the root through a reference")

	listening, ok := tr.Lookup("listening")
	require.True(t, ok)
	assert.True(t, listening.Base().Activity)
	assert.Equal(t, "media/listening-1.ogg", listening.Base().Media)

	fim, ok := tr.Lookup("listening_fim")
	require.True(t, ok)
	assert.Equal(t, domain.KindTerminal, fim.Kind())

	enrol, ok := root.Find("3")
	require.True(t, ok)
	assert.Equal(t, "matricula_nome", enrol.Target.Base().ID, "an input child is entered, not skipped")

	name, ok := tr.Lookup("matricula_nome")
	require.True(t, ok)
	input := name.(*domain.InputNode)
	require.NotNil(t, input.Validator)
	assert.Equal(t, "name", input.Validator.Name())
	assert.Equal(t, "matricula_telefone", input.Next.Base().ID)
}

func TestLoad_JSONDocument(t *testing.T) {
	doc := `{
  "id": "start",
  "message": "Menu",
  "children": [
    {"choice": "1", "message": "Primeira"},
    {"choice": "2", "next": {"id": "deep", "message": "Direto"}},
    {"choice": "0", "action": "back"}
  ]
}`

	tr, err := tree.Load([]byte(doc), nil)
	require.NoError(t, err)

	root := tr.Root.(*domain.OptionsNode)
	first, _ := root.Find("1")
	assert.Equal(t, "start.1", first.Target.Base().ID, "ids are generated from the parent and key")
	assert.Equal(t, domain.KindTerminal, first.Target.Kind())

	second, _ := root.Find("2")
	assert.Equal(t, "deep", second.Target.Base().ID, "a child with next is a label for its next node")

	back, _ := root.Find("0")
	assert.Equal(t, domain.ActionBack, back.Action)
	assert.Nil(t, back.Target)
	assert.Equal(t, 3, tr.Len())
}

func TestLoad_ValidatedOptions(t *testing.T) {
	doc := `
id: cep
message: Informe o CEP
validator: "regex:^[0-9]{8}$"
next:
  id: ok
  message: Obrigado
`
	tr, err := tree.Load([]byte(doc), registry.NewRegistry())
	require.NoError(t, err)

	opt := tr.Root.(*domain.OptionsNode)
	require.NotNil(t, opt.Validator)
	assert.Equal(t, tree.DefaultErrorMessage, opt.ErrorMessage)
	assert.Equal(t, "ok", opt.Next.Base().ID)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "Back With Prompt",
			doc:  `{"id": "r", "children": [{"choice": "0", "action": "back", "message": "nope"}]}`,
			want: "carries a prompt",
		},
		{
			name: "Unknown Reference",
			doc:  `{"id": "r", "children": [{"choice": "1", "ref": "ghost"}]}`,
			want: `unknown node "ghost"`,
		},
		{
			name: "Duplicate Id",
			doc:  `{"id": "r", "children": [{"choice": "1", "id": "x"}, {"choice": "2", "id": "x"}]}`,
			want: `duplicate node id "x"`,
		},
		{
			name: "Input Without Next",
			doc:  `{"id": "r", "type": "input"}`,
			want: "has no next node",
		},
		{
			name: "Options Without Transitions",
			doc:  `{"id": "r", "type": "options"}`,
			want: "has no transitions",
		},
		{
			name: "Repeated Key",
			doc:  `{"id": "r", "children": [{"choice": "1"}, {"choice": "1"}]}`,
			want: "repeats choice key",
		},
		{
			name: "Unknown Validator",
			doc:  `{"id": "r", "type": "input", "validator": "cpf", "next": {"id": "n"}}`,
			want: "validator not found: cpf",
		},
		{
			name: "Unknown Field",
			doc:  `{"id": "r", "mensagem": "Oi"}`,
			want: "mensagem",
		},
		{
			name: "Unknown Type",
			doc:  `{"id": "r", "type": "carousel"}`,
			want: "unknown type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tree.Load([]byte(tt.doc), nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_RepeatedKeyReportedOnce(t *testing.T) {
	doc := `
id: r
children:
  - choice: 1
    message: Primeira
  - choice: 1
    message: Segunda
  - choice: 2
    id: b
    message: Outra
  - choice: 2
    id: c
    message: Mais uma
`
	_, err := tree.Load([]byte(doc), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `node "r" repeats choice key "1"`)
	assert.Contains(t, err.Error(), `node "r" repeats choice key "2"`)
	assert.NotContains(t, err.Error(), "duplicate node id")
}

func TestDocument_JSON(t *testing.T) {
	doc, err := tree.Decode(tree.DefaultDocument())
	require.NoError(t, err)

	out, err := doc.JSON()
	require.NoError(t, err)
	assert.True(t, json.Valid(out))

	// The JSON form loads back into the same tree.
	tr, err := tree.Load(out, nil)
	require.NoError(t, err)
	assert.Equal(t, doc.Title, tr.Title)
}

func TestNew_DuplicateIDs(t *testing.T) {
	a := &domain.TerminalNode{Header: domain.Header{ID: "same"}}
	b := &domain.TerminalNode{Header: domain.Header{ID: "same"}}
	root := &domain.OptionsNode{
		Header:  domain.Header{ID: "root"},
		Choices: []domain.Choice{{Key: "1", Target: a}, {Key: "2", Target: b}},
	}

	_, err := tree.New("t", root)
	assert.ErrorContains(t, err, "duplicate node id")
}
