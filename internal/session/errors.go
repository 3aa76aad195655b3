package session

import (
	"errors"
	"fmt"
)

// ErrTestFailed подставляется, когда о провале теста известно только по testing.TB.Failed().
var ErrTestFailed = errors.New("test failed")

// InfrastructureError - отказ самой инфраструктуры прогона, а не тестовой логики.
type InfrastructureError struct {
	Stage string
	Unit  string
	Err   error
}

func (e *InfrastructureError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Unit, e.Stage, e.Err)
}

func (e *InfrastructureError) Unwrap() error {
	return e.Err
}

type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic в тесте: %v", e.Value)
}
