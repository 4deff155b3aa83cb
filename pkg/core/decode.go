package core

import "fmt"

// tagField is the discriminant field of every companion message.
const tagField = "t"

// kindOf maps a wire tag to its Kind. Unrecognized tags map to
// KindUnknown so the dispatcher's default arm can report them.
func kindOf(tag string) Kind {
	switch tag {
	case "find":
		return KindFind
	case "notify":
		return KindNotify
	case "notify-":
		return KindNotifyDelete
	case "alarm":
		return KindAlarm
	case "vibrate":
		return KindVibrate
	case "weather":
		return KindWeather
	case "musicstate":
		return KindMusicState
	case "musicinfo":
		return KindMusicInfo
	case "call":
		return KindCall
	default:
		return KindUnknown
	}
}

// DecodeCommand classifies a raw inbound message. The tag is read once
// and the remaining fields are copied out; the caller's map is never
// mutated. A payload without a tag is a decode failure.
func DecodeCommand(raw map[string]any) (Command, error) {
	v, ok := raw[tagField]
	if !ok {
		return Command{}, ErrMissingTag
	}
	tag, ok := v.(string)
	if !ok {
		return Command{}, fmt.Errorf("task tag: expected string, got %T", v)
	}

	fields := make(Fields, len(raw)-1)
	for k, val := range raw {
		if k == tagField {
			continue
		}
		fields[k] = val
	}

	return Command{Kind: kindOf(tag), Tag: tag, Fields: fields}, nil
}
