package page

import (
	"context"

	"uiRunner/internal/locator"
)

// LoginLocators - таблица локаторов страницы входа. Значения по умолчанию
// нужно заменить на локаторы реального приложения.
type LoginLocators struct {
	Username     locator.Locator
	Password     locator.Locator
	LoginButton  locator.Locator
	ErrorMessage locator.Locator
}

func DefaultLoginLocators() LoginLocators {
	return LoginLocators{
		Username:     locator.ByID("username_input_id"),
		Password:     locator.ByID("password_input_id"),
		LoginButton:  locator.ByID("login_button_id"),
		ErrorMessage: locator.ByID("error_message_id"),
	}
}

type LoginPage struct {
	*Base
	loc LoginLocators
}

func NewLoginPage(base *Base, loc LoginLocators) *LoginPage {
	return &LoginPage{Base: base, loc: loc}
}

func (p *LoginPage) Locators() LoginLocators {
	return p.loc
}

func (p *LoginPage) EnterUsername(ctx context.Context, username string) error {
	return p.TypeText(ctx, p.loc.Username, username)
}

func (p *LoginPage) EnterPassword(ctx context.Context, password string) error {
	return p.TypeText(ctx, p.loc.Password, password)
}

func (p *LoginPage) ClickLogin(ctx context.Context) error {
	return p.Click(ctx, p.loc.LoginButton)
}

func (p *LoginPage) ErrorMessage(ctx context.Context) string {
	return p.ReadText(ctx, p.loc.ErrorMessage)
}
