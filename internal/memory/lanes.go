package memory

// Partition splits messages by role, preserving relative order. Every role
// is present in the result, possibly with an empty slice.
func Partition(msgs []Message) map[Role][]Message {
	out := make(map[Role][]Message, len(Roles))
	for _, r := range Roles {
		out[r] = []Message{}
	}
	for _, m := range msgs {
		out[m.Role] = append(out[m.Role], m)
	}
	return out
}
