package registry

// UzbekistanValidator validates an Uzbek STIR (9 digits). Uzbekistan's
// registry exposes no public checksum, so validation is structural: length
// and a leading digit drawn from the legal-form ranges the registry assigns.
type UzbekistanValidator struct{}

func (UzbekistanValidator) Country() Country { return Uzbekistan }

func (UzbekistanValidator) Validate(id string) bool {
	if len(id) != 9 || !allDigits(id) {
		return false
	}
	switch id[0] {
	case '3', '4', '5', '6', '7', '8':
		return true
	default:
		return false
	}
}
