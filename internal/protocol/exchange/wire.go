package exchange

import (
	"encoding/hex"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/smallyu/go-ecdh/pkg/kex"
)

// wireMessage is the JSON form of Message. Parties travel as ids and the
// payload as hex.
type wireMessage struct {
	From        string   `json:"from"`
	To          []string `json:"to,omitempty"`
	IsBroadcast bool     `json:"isBroadcast"`
	Data        string   `json:"data"`
	Type        string   `json:"type"`
	Round       uint32   `json:"round"`
}

func (m *Message) MarshalJSON() ([]byte, error) {
	if m.FromParty == nil {
		return nil, errors.New("exchange: message without sender")
	}
	w := wireMessage{
		From:        m.FromParty.ID(),
		IsBroadcast: m.IsBcast,
		Data:        hex.EncodeToString(m.Data),
		Type:        m.TypeString,
		Round:       m.RoundNum,
	}
	for _, p := range m.ToParties {
		w.To = append(w.To, p.ID())
	}
	return json.Marshal(w)
}

// UnmarshalJSON restores a Message. Parties are restored as *Party, which
// is all the state machine needs to match them by id.
func (m *Message) UnmarshalJSON(b []byte) error {
	var w wireMessage
	if err := json.Unmarshal(b, &w); err != nil {
		return errors.Wrap(err, "exchange: decoding message")
	}
	if w.From == "" {
		return errors.Wrap(kex.ErrInvalidMsg, "exchange: message without sender")
	}
	data, err := hex.DecodeString(w.Data)
	if err != nil {
		return errors.Wrap(err, "exchange: decoding payload")
	}

	*m = Message{
		FromParty:  NewParty(w.From),
		IsBcast:    w.IsBroadcast,
		Data:       data,
		TypeString: w.Type,
		RoundNum:   w.Round,
	}
	for _, id := range w.To {
		m.ToParties = append(m.ToParties, NewParty(id))
	}
	return nil
}
