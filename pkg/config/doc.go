// Package config resolves mftypes settings.
//
// Settings are layered, lowest precedence first:
//
//  1. built-in defaults ([Default])
//  2. the federation file named by "federation" (only for app_name,
//     exposes and remotes, and only when those are otherwise unset)
//  3. the TOML config file (mftypes.toml in the working directory, or the
//     file passed to [Load])
//  4. environment variables prefixed MFTYPES_, e.g. MFTYPES_INSTALL_DIR,
//     including those from a project .env file
//
// A minimal config file:
//
//	app_name = "shop"
//	root_dir = "public"
//
//	[exposes]
//	"./Button" = "src/components/Button"
//
//	[remotes]
//	cart = "cart@https://cdn.example.com/cart/remoteEntry.js"
//
// Table keys under [exposes] and [remotes] are module and remote names and
// keep their case.
package config
