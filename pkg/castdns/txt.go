package castdns

import (
	"strings"
)

// TXTRecordMap is a map of TXT record key-value pairs.
type TXTRecordMap map[string]string

// EncodeReceiverTXT creates the TXT attributes advertised for a receiver.
//
// The id key carries the receiver UUID with dashes stripped, which is the
// form cast sender apps expect. Model and capability keys mark the device
// class; status keys advertise an idle receiver.
func EncodeReceiverTXT(info *ReceiverInfo) TXTRecordMap {
	txt := make(TXTRecordMap)

	txt[TXTKeyID] = strings.ReplaceAll(strings.ToLower(info.UUID), "-", "")
	txt[TXTKeyFriendlyName] = info.FriendlyName

	model := info.Model
	if model == "" {
		model = "Guestcast"
	}
	txt[TXTKeyModel] = model
	txt[TXTKeyVersion] = "05"
	txt[TXTKeyCapabilities] = "4101"
	txt[TXTKeyStatus] = "0"
	txt[TXTKeyReceiverStat] = ""

	return txt
}

// TXTRecordsToStrings converts a TXT map to "key=value" strings in a
// deterministic order suitable for a DNS TXT record.
func TXTRecordsToStrings(txt TXTRecordMap) []string {
	// Identity keys lead; remaining keys follow in fixed order so that
	// repeated queries produce byte-identical records.
	order := []string{
		TXTKeyID,
		TXTKeyFriendlyName,
		TXTKeyModel,
		TXTKeyVersion,
		TXTKeyCapabilities,
		TXTKeyStatus,
		TXTKeyReceiverStat,
	}

	result := make([]string, 0, len(txt))
	for _, key := range order {
		if value, ok := txt[key]; ok {
			result = append(result, key+"="+value)
		}
	}
	for key, value := range txt {
		if !isOrderedKey(key, order) {
			result = append(result, key+"="+value)
		}
	}
	return result
}

// StringsToTXTRecords parses "key=value" strings into a TXT map.
// Strings without '=' are stored with an empty value.
func StringsToTXTRecords(strs []string) TXTRecordMap {
	txt := make(TXTRecordMap, len(strs))
	for _, s := range strs {
		key, value, found := strings.Cut(s, "=")
		if !found {
			txt[s] = ""
			continue
		}
		txt[key] = value
	}
	return txt
}

func isOrderedKey(key string, order []string) bool {
	for _, k := range order {
		if k == key {
			return true
		}
	}
	return false
}
