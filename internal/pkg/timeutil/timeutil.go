package timeutil

import "time"

func NowUnix() int64 {
	return time.Now().Unix()
}

func ToISO(unix int64) string {
	return time.Unix(unix, 0).UTC().Format(time.RFC3339)
}
