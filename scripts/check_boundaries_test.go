package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeSource(t *testing.T, root string, rel string, imports ...string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))

	src := "package x\n\nimport (\n"
	for _, imp := range imports {
		src += "\t_ \"" + imp + "\"\n"
	}
	src += ")\n"
	require.NoError(t, os.WriteFile(path, []byte(src), 0o600))
}

func TestCollectViolationsFlagsLayerBreaks(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "governance/voting-ledger/domain/entities/ledger.go",
		"time",
		"ballotbox/contexts/governance/voting-ledger/adapters/memory",
	)
	writeSource(t, root, "governance/voting-ledger/application/commands/ledger.go",
		"ballotbox/contexts/governance/voting-ledger/ports",
		"ballotbox/internal/platform/config",
	)
	writeSource(t, root, "governance/voting-ledger/ports/ports.go",
		"ballotbox/contracts/gen/events/v1",
		"ballotbox/contexts/governance/other-ledger/ports",
	)
	writeSource(t, root, "governance/voting-ledger/adapters/postgres/repository.go",
		"gorm.io/gorm",
		"ballotbox/internal/platform/db",
	)
	writeSource(t, root, "governance/voting-ledger/domain/entities/ledger_test.go",
		"ballotbox/internal/platform/config",
	)

	violations, err := collectViolations(root)
	require.NoError(t, err)

	rules := map[string][]string{}
	for _, v := range violations {
		rel, err := filepath.Rel(filepath.ToSlash(root), v.File)
		require.NoError(t, err)
		rules[filepath.ToSlash(rel)] = append(rules[filepath.ToSlash(rel)], v.Rule)
	}
	require.Equal(t, map[string][]string{
		"governance/voting-ledger/domain/entities/ledger.go": {
			"domain must not import adapters",
			"domain import is outside explicit allowlist",
		},
		"governance/voting-ledger/application/commands/ledger.go": {
			"application must not import runtime infrastructure",
			"application import is outside explicit allowlist",
		},
		"governance/voting-ledger/ports/ports.go": {
			"cross-module imports are forbidden",
			"ports import is outside explicit allowlist",
		},
	}, rules)
}

func TestRepositoryContextsRespectBoundaries(t *testing.T) {
	violations, err := collectViolations(filepath.Join("..", "contexts"))
	require.NoError(t, err)
	require.Empty(t, violations)
}
