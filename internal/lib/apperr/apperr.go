// Package apperr содержит общие ошибки приложения, по которым сервисы и
// HTTP-обработчики принимают решения через errors.Is.
package apperr

import "errors"

var (
	// ErrConfiguration — операция невозможна из-за настроек (нет ключа, цены, товар неактивен).
	// Повторять запрос бессмысленно.
	ErrConfiguration = errors.New("configuration error")
	// ErrAuthVerification — подпись входящего события не прошла проверку.
	ErrAuthVerification = errors.New("authenticity verification failed")
	// ErrUnknownReference — событие ссылается на неизвестного пользователя, товар или подписку.
	ErrUnknownReference = errors.New("unknown reference")
	// ErrUpstream — внешний сервис недоступен или ответил ошибкой. Ошибка временная.
	ErrUpstream = errors.New("upstream error")
	// ErrForbidden — у пользователя нет доступа к операции.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidCredentials — неверный логин или пароль.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNotFound — запись не найдена.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists — запись с таким ключом уже существует.
	ErrAlreadyExists = errors.New("already exists")
	// ErrConflict — запись в состоянии, не допускающем операцию.
	ErrConflict = errors.New("state conflict")
)
