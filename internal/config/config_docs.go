package config

// ///////////////////////////////////////////////
// Documentation Types
// ///////////////////////////////////////////////

// FieldDoc holds documentation and alternative examples for a single config field.
// The genconfig tool uses [FieldDoc] values to annotate the generated config.default.toml.
type FieldDoc struct {
	// Comment is shown as a header comment above the field in the example config.
	Comment string

	// Alternatives are shown as commented-out lines below the active value.
	Alternatives []string
}

// ///////////////////////////////////////////////
// Field Documentation Map
// ///////////////////////////////////////////////

// ConfigDocs maps TOML field paths (dot-separated, e.g. "afk.after_minutes")
// to their [FieldDoc] entries. The genconfig tool uses this map to annotate the
// generated config.default.toml with inline comments and alternative examples.
var ConfigDocs = map[string]FieldDoc{
	// ── Root ──────────────────────────────────────────────────────
	"version": {
		Comment: "Config schema version. Do not edit.",
	},

	// ── Discord ──────────────────────────────────────────────────
	"discord": {
		Comment: "Connection to the local Discord client",
	},
	"discord.app_id": {
		Comment: "Application ID used when --client_id is not given.\nCreate one at https://discord.com/developers/applications",
		Alternatives: []string{
			`app_id = "123456789012345678"`,
		},
	},
	"discord.connect_attempts": {
		Comment: "How many times to try reaching Discord at startup before giving up.\nOnce connected there is no reconnect: a lost connection ends the run.",
	},
	"discord.retry_interval_seconds": {
		Comment: "Seconds to wait between connect attempts.",
	},
	"discord.timeout_seconds": {
		Comment: "Seconds to wait for Discord to answer a single command.",
	},

	// ── AFK ──────────────────────────────────────────────────────
	"afk": {
		Comment: "Idle detection (--afk). Shows an away card after a period of no input\nand clears it when input resumes.",
	},
	"afk.app_id": {
		Comment: "Application shown while away. Its assets must include large_image.\nReplace the shipped value with your own application; --afk refuses to run until you do.",
	},
	"afk.after_minutes": {
		Comment: "Minutes without keyboard or mouse input before switching to away.\nOverridden by --afk_after.",
	},
	"afk.update_seconds": {
		Comment: "How often to check idle time. Overridden by --afk_update.",
	},
	"afk.details": {
		Comment: "Text of the away card. %d in state becomes whole idle minutes.",
	},
	"afk.state": {
		Alternatives: []string{
			`state = "Be right back"`,
		},
	},
	"afk.large_image": {},
	"afk.large_text":  {},

	// ── Behavior ─────────────────────────────────────────────────
	"behavior": {
		Comment: "Run loop settings",
	},
	"behavior.interval_seconds": {
		Comment: "Re-send one-shot presence every N seconds. 0 = send once.\nOverridden by --interval.",
	},
	"behavior.exit_after_seconds": {
		Comment: "Clear presence and exit one-shot mode after N seconds.\n0 = hold presence until interrupted. Overridden by --exit_after.",
	},
	"behavior.teardown_timeout_seconds": {
		Comment: "Seconds allowed for clearing presence on exit. A hung Discord client\ncannot delay shutdown beyond this.",
	},
	"behavior.strict_party": {
		Comment: "Reject activities that set party_size without party_id.",
	},

	// ── Display ──────────────────────────────────────────────────
	"display.color": {
		Comment: "Colored terminal output. Also disabled by NO_COLOR or --disable_color.",
	},

	// ── Log ──────────────────────────────────────────────────────
	"log": {
		Comment: "Logging configuration. Logs go to richcord.log in the data directory.",
	},
	"log.level": {
		Comment: "Minimum log level. Options: \"trace\", \"debug\", \"info\", \"warn\", \"error\"",
		Alternatives: []string{
			`level = "debug"`,
			`level = "warn"`,
		},
	},
	"log.max_size_mb": {
		Comment: "Maximum log file size in megabytes before rotation.",
	},

	// ── Update ───────────────────────────────────────────────────
	"update.check": {
		Comment: "Check for a newer release in the background during --update and --afk.",
	},
}
