package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Partner is one transfer edge in the file.
type Partner struct {
	Partner string
	Ratio   float64
}

// TransferEntry lists the partners of one source currency.
type TransferEntry struct {
	Source   string
	Partners []Partner
}

// TransferTable keeps sources and partners in file order. Each source
// accepts either a list of single-key maps:
//
//	chase_ur:
//	  - united: 1.0
//	  - hyatt: 1.0
//
// or a plain map:
//
//	chase_ur: {united: 1.0, hyatt: 1.0}
type TransferTable []TransferEntry

func (t *TransferTable) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		*t = nil
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: transfers must be a map of source to partners", node.Line)
	}

	out := make(TransferTable, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		entry := TransferEntry{Source: key.Value}

		switch value.Kind {
		case yaml.SequenceNode:
			for _, item := range value.Content {
				if item.Kind != yaml.MappingNode {
					return fmt.Errorf("line %d: transfers.%s entries must be {partner: ratio}", item.Line, key.Value)
				}
				partners, err := decodePartners(key.Value, item)
				if err != nil {
					return err
				}
				entry.Partners = append(entry.Partners, partners...)
			}
		case yaml.MappingNode:
			partners, err := decodePartners(key.Value, value)
			if err != nil {
				return err
			}
			entry.Partners = partners
		case yaml.ScalarNode:
			if value.Tag != "!!null" {
				return fmt.Errorf("line %d: transfers.%s must be a list or map", value.Line, key.Value)
			}
		default:
			return fmt.Errorf("line %d: transfers.%s must be a list or map", value.Line, key.Value)
		}
		out = append(out, entry)
	}
	*t = out
	return nil
}

func decodePartners(source string, m *yaml.Node) ([]Partner, error) {
	out := make([]Partner, 0, len(m.Content)/2)
	for i := 0; i+1 < len(m.Content); i += 2 {
		var ratio float64
		if err := m.Content[i+1].Decode(&ratio); err != nil {
			return nil, fmt.Errorf("transfers.%s.%s: %w", source, m.Content[i].Value, err)
		}
		out = append(out, Partner{Partner: m.Content[i].Value, Ratio: ratio})
	}
	return out, nil
}

// MarshalYAML writes the list form.
func (t TransferTable) MarshalYAML() (any, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, e := range t {
		list := &yaml.Node{Kind: yaml.SequenceNode}
		for _, p := range e.Partners {
			item := &yaml.Node{Kind: yaml.MappingNode}
			var ratio yaml.Node
			if err := ratio.Encode(p.Ratio); err != nil {
				return nil, err
			}
			item.Content = append(item.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Value: p.Partner},
				&ratio,
			)
			list.Content = append(list.Content, item)
		}
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: e.Source},
			list,
		)
	}
	return root, nil
}
