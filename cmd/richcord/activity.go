package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"
	"tools.zach/dev/richcord/internal/presence"
)

// ///////////////////////////////////////////////
// Activity Flags
// ///////////////////////////////////////////////

// textFields maps each string activity flag to its Activity field. Flag names
// match the JSON keys accepted by --update.
var textFields = []struct {
	name  string
	usage string
	field func(*presence.Activity) **string
}{
	{"details", "first line of the activity", func(a *presence.Activity) **string { return &a.Details }},
	{"state", "second line of the activity", func(a *presence.Activity) **string { return &a.State }},
	{"large_image", "large image asset key or URL", func(a *presence.Activity) **string { return &a.LargeImage }},
	{"large_image_text", "large image tooltip", func(a *presence.Activity) **string { return &a.LargeImageText }},
	{"small_image", "small image asset key or URL", func(a *presence.Activity) **string { return &a.SmallImage }},
	{"small_image_text", "small image tooltip", func(a *presence.Activity) **string { return &a.SmallImageText }},
	{"button_text_1", "first button label", func(a *presence.Activity) **string { return &a.ButtonText1 }},
	{"button_url_1", "first button URL", func(a *presence.Activity) **string { return &a.ButtonURL1 }},
	{"button_text_2", "second button label (requires the first button)", func(a *presence.Activity) **string { return &a.ButtonText2 }},
	{"button_url_2", "second button URL", func(a *presence.Activity) **string { return &a.ButtonURL2 }},
	{"party_id", "party identifier", func(a *presence.Activity) **string { return &a.PartyID }},
	{"match_id", "match secret", func(a *presence.Activity) **string { return &a.MatchID }},
	{"join_secret", "join secret (requires match_id)", func(a *presence.Activity) **string { return &a.JoinSecret }},
	{"spectate_secret", "spectate secret (requires match_id)", func(a *presence.Activity) **string { return &a.SpectateSecret }},
}

func activityFlags() []cli.Flag {
	flags := make([]cli.Flag, 0, len(textFields)+4)
	for _, f := range textFields {
		flags = append(flags, &cli.StringFlag{Name: f.name, Usage: f.usage, Category: "activity"})
	}
	return append(flags,
		&cli.BoolFlag{Name: "enable_time", Usage: "show time elapsed since richcord started", Category: "activity"},
		&cli.Int64Flag{Name: "start_time", Usage: "show time elapsed since `UNIX` seconds", Category: "activity"},
		&cli.Int64Flag{Name: "end_time", Usage: "show time remaining until `UNIX` seconds", Category: "activity"},
		&cli.StringFlag{Name: "party_size", Usage: "party size as `CURRENT,MAX`", Category: "activity"},
	)
}

// activityFromFlags builds the Activity described by the flags the user set.
// Unset flags stay nil so they never override a streamed value.
func activityFromFlags(c *cli.Command) (presence.Activity, error) {
	var a presence.Activity
	for _, f := range textFields {
		if c.IsSet(f.name) {
			v := c.String(f.name)
			*f.field(&a) = &v
		}
	}
	if c.IsSet("enable_time") {
		v := c.Bool("enable_time")
		a.EnableTime = &v
	}
	if c.IsSet("start_time") {
		v := c.Int64("start_time")
		a.StartTime = &v
	}
	if c.IsSet("end_time") {
		v := c.Int64("end_time")
		a.EndTime = &v
	}
	if c.IsSet("party_size") {
		size, err := parsePartySize(c.String("party_size"))
		if err != nil {
			return presence.Activity{}, &usageError{fmt.Sprintf("--party_size: %v", err)}
		}
		a.PartySize = size
	}
	return a, nil
}

// parsePartySize reads "CURRENT,MAX". Range checks are left to validation
// so flags and streamed updates report them the same way.
func parsePartySize(s string) (presence.PartySize, error) {
	cur, maxStr, ok := strings.Cut(s, ",")
	if !ok {
		return nil, fmt.Errorf("%q must be CURRENT,MAX", s)
	}
	current, err := strconv.ParseInt(strings.TrimSpace(cur), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("current size %q is not an integer", cur)
	}
	maxSize, err := strconv.ParseInt(strings.TrimSpace(maxStr), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("max size %q is not an integer", maxStr)
	}
	return presence.NewPartySize(current, maxSize), nil
}
