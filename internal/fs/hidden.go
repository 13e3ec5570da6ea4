package fs

func isDotName(name string) bool {
	return len(name) > 0 && name[0] == '.'
}
