package menu

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/frahmantamala/pos-backoffice/internal"
	"github.com/frahmantamala/pos-backoffice/internal/core/events"
)

type RepositoryAPI interface {
	// FindByCode matches inactive nodes too; codes stay reserved after deletion.
	FindByCode(ctx context.Context, code string) (*Node, error)
	FindAll(ctx context.Context) ([]Node, error)
	FindAllActive(ctx context.Context) ([]Node, error)
	CountActiveChildren(ctx context.Context, id int64) (int64, error)
	CountActiveGrants(ctx context.Context, code string) (int64, error)
	Create(ctx context.Context, n *Node) error
	// Save persists every node in one transaction.
	Save(ctx context.Context, nodes ...Node) error
}

// Service is the menu directory and its administrative commands.
type Service struct {
	repo      RepositoryAPI
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(repo RepositoryAPI, publisher events.Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// FindMenuByCode returns nil when the code is unknown or the node is inactive.
func (s *Service) FindMenuByCode(ctx context.Context, code string) (*Node, error) {
	n, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		s.logger.Error("failed to find menu", "code", code, "error", err)
		return nil, fmt.Errorf("find menu %q: %w", code, err)
	}
	if n == nil || !n.IsActive {
		return nil, nil
	}
	return n, nil
}

func (s *Service) FindAllActiveMenus(ctx context.Context) ([]Node, error) {
	nodes, err := s.repo.FindAllActive(ctx)
	if err != nil {
		s.logger.Error("failed to load menu tree", "error", err)
		return nil, fmt.Errorf("load menu tree: %w", err)
	}
	return nodes, nil
}

// ListMenus returns the active tree in display order.
func (s *Service) ListMenus(ctx context.Context) ([]Node, error) {
	nodes, err := s.FindAllActiveMenus(ctx)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(nodes, func(a, b Node) int {
		return cmp.Or(
			cmp.Compare(a.Level, b.Level),
			cmp.Compare(a.DisplayOrder, b.DisplayOrder),
			cmp.Compare(a.Name, b.Name),
		)
	})
	return nodes, nil
}

func (s *Service) CreateMenu(ctx context.Context, req CreateMenuRequest) (*Node, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	nodeType, err := ParseNodeType(req.Type)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByCode(ctx, req.Code)
	if err != nil {
		return nil, fmt.Errorf("check menu code: %w", err)
	}
	if existing != nil {
		return nil, internal.ErrMenuCodeTaken.WithDetails(map[string]string{"code": req.Code})
	}

	parent, err := s.findParent(ctx, req.ParentCode)
	if err != nil {
		return nil, err
	}

	node, evts, err := NewNode(CreateCommand{
		Code:         req.Code,
		Name:         req.Name,
		Path:         req.Path,
		DisplayOrder: req.DisplayOrder,
		Type:         nodeType,
	}, parent, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, &node); err != nil {
		s.logger.Error("failed to create menu", "code", req.Code, "error", err)
		return nil, fmt.Errorf("create menu: %w", err)
	}

	if err := s.dispatch(ctx, evts); err != nil {
		return nil, err
	}

	s.logger.Info("menu created", "code", node.Code, "level", node.Level, "type", node.Type)
	return &node, nil
}

func (s *Service) UpdateMenu(ctx context.Context, code string, req UpdateMenuRequest) (*Node, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	current, err := s.FindMenuByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, internal.ErrMenuNotFound
	}

	cmd := UpdateCommand{Name: req.Name, Path: req.Path, DisplayOrder: req.DisplayOrder}
	if req.Type != nil {
		t, err := ParseNodeType(*req.Type)
		if err != nil {
			return nil, err
		}
		cmd.Type = &t
		if t == NodeCategory && current.Type != NodeCategory {
			if err := s.ensureUngranted(ctx, code); err != nil {
				return nil, err
			}
		}
	}

	now := s.now()
	node, evts := current.Update(cmd, now)
	toSave := []Node{}

	if req.ParentCode != nil && !sameParent(current, *req.ParentCode) {
		moved, moveEvts, relevelled, err := s.move(ctx, node, *req.ParentCode, now)
		if err != nil {
			return nil, err
		}
		node = moved
		evts = append(evts, moveEvts...)
		toSave = append(toSave, relevelled...)
	}
	toSave = append([]Node{node}, toSave...)

	if err := s.repo.Save(ctx, toSave...); err != nil {
		s.logger.Error("failed to update menu", "code", code, "error", err)
		return nil, fmt.Errorf("update menu: %w", err)
	}

	if err := s.dispatch(ctx, evts); err != nil {
		return nil, err
	}

	s.logger.Info("menu updated", "code", code, "relevelled", len(toSave)-1)
	return &node, nil
}

// DeleteMenu deactivates a node; nodes with active children must be emptied first.
func (s *Service) DeleteMenu(ctx context.Context, code string) error {
	current, err := s.FindMenuByCode(ctx, code)
	if err != nil {
		return err
	}
	if current == nil {
		return internal.ErrMenuNotFound
	}

	children, err := s.repo.CountActiveChildren(ctx, current.ID)
	if err != nil {
		return fmt.Errorf("count menu children: %w", err)
	}
	if children > 0 {
		return internal.ErrMenuHasChildren.WithDetails(map[string]interface{}{"code": code, "children": children})
	}

	node, evts := current.Deactivate(s.now())
	if err := s.repo.Save(ctx, node); err != nil {
		s.logger.Error("failed to delete menu", "code", code, "error", err)
		return fmt.Errorf("delete menu: %w", err)
	}

	if err := s.dispatch(ctx, evts); err != nil {
		return err
	}

	s.logger.Info("menu deleted", "code", code)
	return nil
}

func (s *Service) move(ctx context.Context, node Node, parentCode string, now time.Time) (Node, []events.Event, []Node, error) {
	parent, err := s.findParent(ctx, parentCode)
	if err != nil {
		return Node{}, nil, nil, err
	}

	all, err := s.repo.FindAll(ctx)
	if err != nil {
		return Node{}, nil, nil, fmt.Errorf("load menu tree: %w", err)
	}
	byID := make(map[int64]Node, len(all))
	for _, n := range all {
		byID[n.ID] = n
	}

	if parent != nil && IsDescendant(*parent, node.ID, byID) {
		return Node{}, nil, nil, internal.ErrMenuHierarchyInvalid.WithDetails(map[string]string{
			"reason": fmt.Sprintf("%s is a descendant of %s", parent.Code, node.Code),
		})
	}

	moved, evts, err := node.Move(parent, now)
	if err != nil {
		return Node{}, nil, nil, err
	}
	return moved, evts, Relevel(moved, all, now), nil
}

// ensureUngranted rejects turning a node into a category while grants still point at it.
func (s *Service) ensureUngranted(ctx context.Context, code string) error {
	grants, err := s.repo.CountActiveGrants(ctx, code)
	if err != nil {
		return fmt.Errorf("count menu grants: %w", err)
	}
	if grants > 0 {
		return internal.ErrMenuHasGrants.WithDetails(map[string]interface{}{"code": code, "grants": grants})
	}
	return nil
}

func (s *Service) findParent(ctx context.Context, parentCode string) (*Node, error) {
	if parentCode == "" {
		return nil, nil
	}
	parent, err := s.FindMenuByCode(ctx, parentCode)
	if err != nil {
		return nil, err
	}
	if parent == nil {
		return nil, internal.ErrMenuHierarchyInvalid.WithDetails(map[string]string{
			"reason": fmt.Sprintf("parent %s does not exist", parentCode),
		})
	}
	return parent, nil
}

// dispatch runs the subscribers (cache invalidation among them) before the command returns.
func (s *Service) dispatch(ctx context.Context, evts []events.Event) error {
	if s.publisher == nil {
		return nil
	}
	if err := s.publisher.PublishAll(ctx, evts); err != nil {
		s.logger.Error("menu change saved but event handlers failed", "error", err)
		return internal.ErrCacheUnavailable.WithCause(err)
	}
	return nil
}

func sameParent(n *Node, parentCode string) bool {
	return parentCode == "" && n.ParentID == nil
}
