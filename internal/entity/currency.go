package entity

// Currency is the closed set of settlement currencies the engine supports.
type Currency string

const (
	NativeCurrency Currency = "NATIVE"
	StableCurrency Currency = "USDC"
)

func (c Currency) IsValid() bool {
	return c == NativeCurrency || c == StableCurrency
}
