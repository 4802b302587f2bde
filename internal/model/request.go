package model

import "encoding/json"

type VerifyPINRequest struct {
	PIN string `json:"pin"`
}

type RenameRequest struct {
	Name string `json:"name"`
}

// Preferences is the whole favorites/renames document kept by the
// preferences store. Favorite values are opaque JSON owned by the front end.
type Preferences struct {
	Favorites map[string]json.RawMessage `json:"favorites"`
	Renames   map[string]string          `json:"renames"`
}

func NewPreferences() Preferences {
	return Preferences{
		Favorites: map[string]json.RawMessage{},
		Renames:   map[string]string{},
	}
}
