package pairing

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ellipsisKeep is the number of characters kept on each side when shortening
// addresses and token ids for display.
const ellipsisKeep = 4

// accountFromSession interprets the first approved account of a session.
// Unparseable addresses yield a nil account rather than an error.
func accountFromSession(session SessionSnapshot) *Account {
	if len(session.ApprovedAccounts) == 0 {
		return nil
	}
	raw := strings.TrimSpace(session.ApprovedAccounts[0])
	if !common.IsHexAddress(raw) {
		return nil
	}
	address := common.HexToAddress(raw)
	return &Account{
		Address:        address,
		DisplayAddress: middleEllipsized(address.Hex(), ellipsisKeep),
		DisplayName:    session.PeerName,
	}
}

// middleEllipsized shortens s to its first and last n characters. A leading
// 0x prefix is kept and not counted.
func middleEllipsized(s string, n int) string {
	prefix := ""
	body := s
	if strings.HasPrefix(body, "0x") || strings.HasPrefix(body, "0X") {
		prefix, body = body[:2], body[2:]
	}
	if len(body) <= 2*n {
		return s
	}
	return prefix + body[:n] + "…" + body[len(body)-n:]
}

// mapAssets converts provider records into display-ready assets.
func mapAssets(owned []OwnedAsset) []Asset {
	assets := make([]Asset, 0, len(owned))
	for _, o := range owned {
		contract := o.ContractName
		if contract == "" {
			contract = middleEllipsized(o.Contract.Hex(), ellipsisKeep)
		}
		token := o.Name
		if token == "" && o.ID != nil {
			token = middleEllipsized(o.ID.String(), ellipsisKeep)
		}
		assets = append(assets, Asset{
			Contract: contract,
			Token:    token,
			Image:    o.Image,
		})
	}
	return assets
}
