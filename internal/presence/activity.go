// Package presence models a Rich Presence snapshot and the rules that govern
// it.
//
// The package provides three core capabilities:
//
//   - The [Activity] model: every field is independently optional, and a
//     [Patch] of the same shape is merged into it field by field with [Merge].
//   - Decoding: [Decode] turns one line of newline-delimited JSON into a
//     [Patch], reporting malformed input as a [DecodeError].
//   - Validation: [Validator] checks a merged Activity for internal
//     consistency before it may reach the transport.
//
// [ToWire] converts a validated Activity into the [discord.Activity] shape
// sent over IPC.
package presence

import (
	"encoding/json"
	"strconv"
	"time"

	"tools.zach/dev/richcord/internal/discord"
)

// ///////////////////////////////////////////////
// Types
// ///////////////////////////////////////////////

// PartySize is the raw [current, max] pair exactly as supplied. It is kept
// undecoded so that count, sign and range problems surface as validation
// errors rather than decode errors. A nil PartySize means "not provided".
type PartySize []json.RawMessage

// NewPartySize builds a PartySize from two integers.
func NewPartySize(current, max int64) PartySize {
	return PartySize{
		json.RawMessage(strconv.FormatInt(current, 10)),
		json.RawMessage(strconv.FormatInt(max, 10)),
	}
}

// Activity is one presence snapshot. A nil field is absent; the zero
// Activity is valid and means "clear presence".
type Activity struct {
	State   *string `json:"state"`
	Details *string `json:"details"`

	LargeImage     *string `json:"large_image"`
	LargeImageText *string `json:"large_image_text"`
	SmallImage     *string `json:"small_image"`
	SmallImageText *string `json:"small_image_text"`

	ButtonText1 *string `json:"button_text_1"`
	ButtonURL1  *string `json:"button_url_1"`
	ButtonText2 *string `json:"button_text_2"`
	ButtonURL2  *string `json:"button_url_2"`

	// EnableTime shows time elapsed since the presence was first published.
	EnableTime *bool `json:"enable_time"`
	// StartTime and EndTime are explicit Unix timestamps in seconds.
	StartTime *int64 `json:"start_time"`
	EndTime   *int64 `json:"end_time"`

	PartySize PartySize `json:"party_size"`
	PartyID   *string   `json:"party_id"`

	MatchID        *string `json:"match_id"`
	JoinSecret     *string `json:"join_secret"`
	SpectateSecret *string `json:"spectate_secret"`
}

// Patch is a partial Activity used only as a merge patch: every present
// field overwrites, every absent field leaves the base untouched.
type Patch Activity

// TimestampMode is the timer display derived from the timestamp fields.
type TimestampMode int

const (
	// TimestampsNone shows no timer.
	TimestampsNone TimestampMode = iota
	// TimestampsNow counts up from the moment presence was first published.
	TimestampsNow
	// TimestampsExplicit uses the supplied start and/or end time.
	TimestampsExplicit
)

// ///////////////////////////////////////////////
// Accessors
// ///////////////////////////////////////////////

// TimestampMode reports which timer the activity requests. When enable_time
// conflicts with explicit times the explicit times win; [Validator] rejects
// that combination before it can be published.
func (a Activity) TimestampMode() TimestampMode {
	switch {
	case a.StartTime != nil || a.EndTime != nil:
		return TimestampsExplicit
	case a.EnableTime != nil && *a.EnableTime:
		return TimestampsNow
	default:
		return TimestampsNone
	}
}

// HasButton1 reports whether either half of the first button is set.
func (a Activity) HasButton1() bool { return a.ButtonText1 != nil || a.ButtonURL1 != nil }

// HasButton2 reports whether either half of the second button is set.
func (a Activity) HasButton2() bool { return a.ButtonText2 != nil || a.ButtonURL2 != nil }

// IsEmpty reports whether no field is present.
func (a Activity) IsEmpty() bool {
	return len(a.Fields()) == 0
}

// Fields returns the wire keys of the fields that are present, in
// declaration order. It is used for log lines.
func (a Activity) Fields() []string {
	var keys []string
	add := func(present bool, key string) {
		if present {
			keys = append(keys, key)
		}
	}
	add(a.State != nil, "state")
	add(a.Details != nil, "details")
	add(a.LargeImage != nil, "large_image")
	add(a.LargeImageText != nil, "large_image_text")
	add(a.SmallImage != nil, "small_image")
	add(a.SmallImageText != nil, "small_image_text")
	add(a.ButtonText1 != nil, "button_text_1")
	add(a.ButtonURL1 != nil, "button_url_1")
	add(a.ButtonText2 != nil, "button_text_2")
	add(a.ButtonURL2 != nil, "button_url_2")
	add(a.EnableTime != nil, "enable_time")
	add(a.StartTime != nil, "start_time")
	add(a.EndTime != nil, "end_time")
	add(a.PartySize != nil, "party_size")
	add(a.PartyID != nil, "party_id")
	add(a.MatchID != nil, "match_id")
	add(a.JoinSecret != nil, "join_secret")
	add(a.SpectateSecret != nil, "spectate_secret")
	return keys
}

// ///////////////////////////////////////////////
// Merge
// ///////////////////////////////////////////////

// pick returns patch when present, otherwise base.
func pick[T any](base, patch *T) *T {
	if patch != nil {
		return patch
	}
	return base
}

// Merge applies patch to base field by field and returns the result. It never
// fails and never modifies either argument.
func Merge(base Activity, patch Patch) Activity {
	out := Activity{
		State:          pick(base.State, patch.State),
		Details:        pick(base.Details, patch.Details),
		LargeImage:     pick(base.LargeImage, patch.LargeImage),
		LargeImageText: pick(base.LargeImageText, patch.LargeImageText),
		SmallImage:     pick(base.SmallImage, patch.SmallImage),
		SmallImageText: pick(base.SmallImageText, patch.SmallImageText),
		ButtonText1:    pick(base.ButtonText1, patch.ButtonText1),
		ButtonURL1:     pick(base.ButtonURL1, patch.ButtonURL1),
		ButtonText2:    pick(base.ButtonText2, patch.ButtonText2),
		ButtonURL2:     pick(base.ButtonURL2, patch.ButtonURL2),
		EnableTime:     pick(base.EnableTime, patch.EnableTime),
		StartTime:      pick(base.StartTime, patch.StartTime),
		EndTime:        pick(base.EndTime, patch.EndTime),
		PartySize:      base.PartySize,
		PartyID:        pick(base.PartyID, patch.PartyID),
		MatchID:        pick(base.MatchID, patch.MatchID),
		JoinSecret:     pick(base.JoinSecret, patch.JoinSecret),
		SpectateSecret: pick(base.SpectateSecret, patch.SpectateSecret),
	}
	if patch.PartySize != nil {
		out.PartySize = make(PartySize, len(patch.PartySize))
		copy(out.PartySize, patch.PartySize)
	}
	return out
}

// ///////////////////////////////////////////////
// Wire Conversion
// ///////////////////////////////////////////////

// deref returns the pointed-to string or "".
func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ToWire converts a into the IPC activity shape. started is the instant the
// presence was first published, used for enable_time. It returns nil when
// nothing would be displayed, which callers publish as a clear.
func ToWire(a Activity, started time.Time) *discord.Activity {
	da := &discord.Activity{
		Details: deref(a.Details),
		State:   deref(a.State),
	}
	empty := da.State == "" && da.Details == ""

	switch a.TimestampMode() {
	case TimestampsNow:
		da.Timestamps = &discord.Timestamps{Start: started.Unix()}
	case TimestampsExplicit:
		da.Timestamps = &discord.Timestamps{}
		if a.StartTime != nil {
			da.Timestamps.Start = *a.StartTime
		}
		if a.EndTime != nil {
			da.Timestamps.End = *a.EndTime
		}
	}
	if da.Timestamps != nil {
		empty = false
	}

	assets := discord.Assets{
		LargeImage: deref(a.LargeImage),
		LargeText:  deref(a.LargeImageText),
		SmallImage: deref(a.SmallImage),
		SmallText:  deref(a.SmallImageText),
	}
	if assets != (discord.Assets{}) {
		da.Assets = &assets
		empty = false
	}

	if a.ButtonText1 != nil && a.ButtonURL1 != nil {
		da.Buttons = append(da.Buttons, discord.Button{Label: *a.ButtonText1, URL: *a.ButtonURL1})
	}
	if a.ButtonText2 != nil && a.ButtonURL2 != nil {
		da.Buttons = append(da.Buttons, discord.Button{Label: *a.ButtonText2, URL: *a.ButtonURL2})
	}
	if len(da.Buttons) > 0 {
		empty = false
	}

	party := discord.Party{ID: deref(a.PartyID)}
	if current, max, err := a.PartySize.Values(); err == nil {
		party.Size = []uint32{current, max}
	}
	if party.ID != "" || party.Size != nil {
		da.Party = &party
		empty = false
	}

	secrets := discord.Secrets{
		Match:    deref(a.MatchID),
		Join:     deref(a.JoinSecret),
		Spectate: deref(a.SpectateSecret),
	}
	if secrets != (discord.Secrets{}) {
		da.Secrets = &secrets
		empty = false
	}

	if empty {
		return nil
	}
	return da
}
