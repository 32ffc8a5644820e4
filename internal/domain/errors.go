package domain

import "errors"

var (
	ErrUpstreamAuth        = errors.New("provider token exchange failed")
	ErrUpstreamPush        = errors.New("provider rejected push payment request")
	ErrTransactionNotFound = errors.New("transaction not found")
)
