package registry

// BelarusValidator validates a Belarusian UNP (9 digits).
type BelarusValidator struct{}

func (BelarusValidator) Country() Country { return Belarus }

var (
	belarusWeights1 = [8]int{29, 23, 19, 17, 13, 7, 5, 3}
	belarusWeights2 = [7]int{23, 19, 17, 13, 7, 5, 3}
)

// Validate implements the Belarusian УНП checksum.
func (BelarusValidator) Validate(id string) bool {
	if len(id) != 9 || !allDigits(id) || id == "000000000" {
		return false
	}
	sum := 0
	for i, w := range belarusWeights1 {
		sum += w * int(id[i]-'0')
	}
	checksum := sum % 11
	if checksum == 10 {
		sum = 0
		for i, w := range belarusWeights2 {
			sum += w * int(id[i+1]-'0')
		}
		checksum = sum % 11
	}
	return checksum == int(id[8]-'0')
}
