package session

import (
	"context"
	"testing"
)

// Start открывает сессию для теста t и регистрирует ее завершение в t.Cleanup.
// Провал определяется по t.Failed() на момент очистки, включая панику в тесте.
func (m *Manager) Start(t testing.TB) *Session {
	t.Helper()

	h, err := m.Open(context.Background(), t.Name())
	if err != nil {
		t.Fatalf("создание сессии: %v", err)
		return nil
	}

	t.Cleanup(func() {
		var testErr error
		if t.Failed() {
			testErr = ErrTestFailed
		}

		out := m.Finish(context.Background(), h, testErr)
		if out.Artifact != nil {
			t.Logf("скриншот: %s", out.Artifact.Path)
		}
		if out.CaptureErr != nil {
			t.Logf("скриншот не сохранен: %v", out.CaptureErr)
		}
	})

	return h.Session
}
