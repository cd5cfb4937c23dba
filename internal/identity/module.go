package identity

import "go.uber.org/fx"

// Module provides authentication and account management.
var Module = fx.Provide(
	NewAuthenticator,
	NewAccounts,
)
