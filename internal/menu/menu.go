package menu

import (
	"fmt"
	"strings"
	"time"

	"github.com/frahmantamala/pos-backoffice/internal"
	menuDatamodel "github.com/frahmantamala/pos-backoffice/internal/core/datamodel/menu"
	"github.com/frahmantamala/pos-backoffice/internal/core/events"
)

type NodeType string

const (
	NodeCategory NodeType = "CATEGORY"
	NodeMenu     NodeType = "MENU"
	NodeFunction NodeType = "FUNCTION"
)

func ParseNodeType(s string) (NodeType, error) {
	switch t := NodeType(strings.ToUpper(strings.TrimSpace(s))); t {
	case NodeCategory, NodeMenu, NodeFunction:
		return t, nil
	}
	return "", internal.ErrInvalidMenuType.WithDetails(map[string]string{"type": s})
}

// Node is one entry of the menu tree. Level is the depth, 1 for roots.
type Node struct {
	ID           int64     `json:"id"`
	Code         string    `json:"code"`
	Name         string    `json:"name"`
	Path         string    `json:"path"`
	ParentID     *int64    `json:"parent_id,omitempty"`
	Level        int       `json:"level"`
	DisplayOrder int       `json:"display_order"`
	Type         NodeType  `json:"type"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (n Node) IsCategory() bool {
	return n.Type == NodeCategory
}

func (n Node) IsRoot() bool {
	return n.ParentID == nil
}

type CreateCommand struct {
	Code         string
	Name         string
	Path         string
	DisplayOrder int
	Type         NodeType
}

type UpdateCommand struct {
	Name         *string
	Path         *string
	DisplayOrder *int
	Type         *NodeType
}

// NewNode places a new node under parent, or at the root when parent is nil.
func NewNode(cmd CreateCommand, parent *Node, now time.Time) (Node, []events.Event, error) {
	n := Node{
		Code:         cmd.Code,
		Name:         cmd.Name,
		Path:         cmd.Path,
		DisplayOrder: cmd.DisplayOrder,
		Type:         cmd.Type,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	placed, err := n.placeUnder(parent)
	if err != nil {
		return Node{}, nil, err
	}
	return placed, []events.Event{newChangedEvent(EventCreated, placed, now)}, nil
}

func (n Node) Update(cmd UpdateCommand, now time.Time) (Node, []events.Event) {
	if cmd.Name != nil {
		n.Name = *cmd.Name
	}
	if cmd.Path != nil {
		n.Path = *cmd.Path
	}
	if cmd.DisplayOrder != nil {
		n.DisplayOrder = *cmd.DisplayOrder
	}
	if cmd.Type != nil {
		n.Type = *cmd.Type
	}
	n.UpdatedAt = now
	return n, []events.Event{newChangedEvent(EventUpdated, n, now)}
}

// Move re-parents the node. Descendant levels are the caller's concern; see Relevel.
func (n Node) Move(parent *Node, now time.Time) (Node, []events.Event, error) {
	if parent != nil && parent.ID == n.ID {
		return Node{}, nil, internal.ErrMenuHierarchyInvalid.WithDetails(map[string]string{"reason": "menu cannot be its own parent"})
	}
	moved, err := n.placeUnder(parent)
	if err != nil {
		return Node{}, nil, err
	}
	moved.UpdatedAt = now
	return moved, []events.Event{newChangedEvent(EventUpdated, moved, now)}, nil
}

func (n Node) Deactivate(now time.Time) (Node, []events.Event) {
	n.IsActive = false
	n.UpdatedAt = now
	return n, []events.Event{newChangedEvent(EventDeleted, n, now)}
}

func (n Node) placeUnder(parent *Node) (Node, error) {
	if parent == nil {
		n.ParentID = nil
		n.Level = 1
		return n, nil
	}
	if !parent.IsActive {
		return Node{}, internal.ErrMenuHierarchyInvalid.WithDetails(map[string]string{
			"reason": fmt.Sprintf("parent %s is inactive", parent.Code),
		})
	}
	id := parent.ID
	n.ParentID = &id
	n.Level = parent.Level + 1
	return n, nil
}

// Relevel recomputes the level of every descendant of root so that each
// node sits one level below its parent. It returns only the nodes it changed.
func Relevel(root Node, all []Node, now time.Time) []Node {
	children := make(map[int64][]Node)
	for _, n := range all {
		if n.ParentID != nil {
			children[*n.ParentID] = append(children[*n.ParentID], n)
		}
	}

	var changed []Node
	seen := map[int64]bool{root.ID: true}
	queue := []Node{root}
	for len(queue) > 0 {
		parent := queue[0]
		queue = queue[1:]
		for _, child := range children[parent.ID] {
			if seen[child.ID] {
				continue
			}
			seen[child.ID] = true
			if child.Level != parent.Level+1 {
				child.Level = parent.Level + 1
				child.UpdatedAt = now
				changed = append(changed, child)
			}
			queue = append(queue, child)
		}
	}
	return changed
}

// IsDescendant reports whether candidate sits anywhere below ancestorID.
func IsDescendant(candidate Node, ancestorID int64, byID map[int64]Node) bool {
	seen := make(map[int64]bool)
	current := candidate
	for current.ParentID != nil {
		if *current.ParentID == ancestorID {
			return true
		}
		if seen[current.ID] {
			return false
		}
		seen[current.ID] = true
		parent, ok := byID[*current.ParentID]
		if !ok {
			return false
		}
		current = parent
	}
	return false
}

func ToDataModel(n Node) *menuDatamodel.Menu {
	return &menuDatamodel.Menu{
		ID:           n.ID,
		Code:         n.Code,
		Name:         n.Name,
		Path:         n.Path,
		ParentID:     n.ParentID,
		Level:        n.Level,
		DisplayOrder: n.DisplayOrder,
		Type:         string(n.Type),
		IsActive:     n.IsActive,
		CreatedAt:    n.CreatedAt,
		UpdatedAt:    n.UpdatedAt,
	}
}

func FromDataModel(m *menuDatamodel.Menu) Node {
	return Node{
		ID:           m.ID,
		Code:         m.Code,
		Name:         m.Name,
		Path:         m.Path,
		ParentID:     m.ParentID,
		Level:        m.Level,
		DisplayOrder: m.DisplayOrder,
		Type:         NodeType(m.Type),
		IsActive:     m.IsActive,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}
