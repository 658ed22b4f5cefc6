package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// discordEpoch is the first millisecond of 2015, the platform's id epoch.
const discordEpoch int64 = 1420070400000

const snowflakeTimeShift = 22

// ValidID reports whether id is a well-formed platform snowflake.
func ValidID(id string) bool {
	sf, err := snowflake.ParseString(id)
	if err != nil {
		return false
	}
	return sf.Int64() > 0
}

// IDTime returns the creation time encoded in a platform snowflake.
func IDTime(id string) (time.Time, bool) {
	sf, err := snowflake.ParseString(id)
	if err != nil || sf.Int64() <= 0 {
		return time.Time{}, false
	}
	return time.UnixMilli((sf.Int64() >> snowflakeTimeShift) + discordEpoch).UTC(), true
}
