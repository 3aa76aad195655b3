// Package flows собирает повторяющиеся сценарии из шагов page objects,
// чтобы тесты не повторяли одни и те же действия.
package flows

import (
	"context"
	"fmt"

	"uiRunner/internal/page"
)

// LoginUser вводит логин и пароль и нажимает кнопку входа. Возвращает ту же
// страницу для дальнейших проверок.
func LoginUser(ctx context.Context, p *page.LoginPage, username, password string) (*page.LoginPage, error) {
	if err := p.EnterUsername(ctx, username); err != nil {
		return p, fmt.Errorf("ввод логина: %w", err)
	}
	if err := p.EnterPassword(ctx, password); err != nil {
		return p, fmt.Errorf("ввод пароля: %w", err)
	}
	if err := p.ClickLogin(ctx); err != nil {
		return p, fmt.Errorf("вход: %w", err)
	}
	return p, nil
}
