package memory_test

import (
	"testing"

	"github.com/claytonlovin/Botinho/pkg/adapters/memory"
	"github.com/claytonlovin/Botinho/pkg/ports"
	contract "github.com/claytonlovin/Botinho/pkg/ports/tests"
)

func TestMemoryStore_Contract(t *testing.T) {
	ports.RunSessionStoreContract(t, memory.NewStore())
}

func TestMemoryResultStore_Contract(t *testing.T) {
	ports.RunResultStoreContract(t, memory.NewResultStore())
}

func TestMemoryTranscriptStore_Contract(t *testing.T) {
	ports.RunTranscriptStoreContract(t, memory.NewTranscriptStore(10), 10)
}

func TestMemoryTreeRepository_Contract(t *testing.T) {
	contract.TreeRepositoryContractTest(t, memory.NewTreeRepository())
}
