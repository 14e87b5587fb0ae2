package enums

// MobileMoneyProvider names the wallet network used for a momo payment.
type MobileMoneyProvider string

const (
	MobileMoneyMTN        MobileMoneyProvider = "mtn"
	MobileMoneyVodafone   MobileMoneyProvider = "vodafone"
	MobileMoneyAirtelTigo MobileMoneyProvider = "airteltigo"
)

var validMobileMoneyProviders = []MobileMoneyProvider{
	MobileMoneyMTN,
	MobileMoneyVodafone,
	MobileMoneyAirtelTigo,
}

func (m MobileMoneyProvider) String() string {
	return string(m)
}

func (m MobileMoneyProvider) IsValid() bool {
	for _, candidate := range validMobileMoneyProviders {
		if candidate == m {
			return true
		}
	}
	return false
}
