package store

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/common"
	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/logger"
	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/logger/memory"
)

func seedMutations() []common.Mutation {
	return []common.Mutation{
		{Kind: common.MutationUpsertNode, NodeType: common.NodeCompany, Name: "Acme Inc", Attrs: common.NodeAttrs{Role: common.RoleSelf}},
		{Kind: common.MutationUpsertNode, NodeType: common.NodeCompany, Name: "Globex", Attrs: common.NodeAttrs{Role: common.RoleCompetitor}},
		{Kind: common.MutationUpsertNode, NodeType: common.NodeMarket, Name: "Cloud Storage"},
		{Kind: common.MutationUpsertNode, NodeType: common.NodeProduct, Name: "Globex Drive", Attrs: common.NodeAttrs{Owner: "Globex"}},
		{Kind: common.MutationUpsertEdge, EdgeType: common.EdgeCompetesWith, From: "Globex", To: "acme inc"},
		{Kind: common.MutationUpsertEdge, EdgeType: common.EdgeOperatesIn, From: "Globex", To: "cloud  storage"},
		{Kind: common.MutationUpsertEdge, EdgeType: common.EdgeHasProduct, From: "Globex", To: "Globex Drive"},
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Acme   Corp ", "acme corp"},
		{"ACME\tcorp", "acme corp"},
		{"Émile Ltd", "émile ltd"},
		{"   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Fatalf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestStripCorporateSuffix(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Acme Inc.", "Acme"},
		{"Acme, Inc.", "Acme"},
		{"Foo Co., Ltd.", "Foo"},
		{"Siemens AG", "Siemens"},
		{"Inc", "Inc"},
		{"Globex", "Globex"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := StripCorporateSuffix(tt.in); got != tt.want {
				t.Fatalf("StripCorporateSuffix(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestUpsertNodeIdentity(t *testing.T) {
	s := New()

	id1, err := s.UpsertNode(common.NodeCompany, "Acme  Corp", common.NodeAttrs{})
	if err != nil {
		t.Fatalf("UpsertNode: %v", err)
	}
	id2, err := s.UpsertNode(common.NodeCompany, " acme corp ", common.NodeAttrs{Aliases: []string{"ACME"}})
	if err != nil {
		t.Fatalf("UpsertNode: %v", err)
	}
	if id1 != id2 {
		t.Fatalf("expected same id, got %q and %q", id1, id2)
	}
	if id1 != "company:acme corp" {
		t.Fatalf("unexpected id %q", id1)
	}

	n, ok := s.Node(id1)
	if !ok {
		t.Fatal("node not found")
	}
	if n.Name != "Acme Corp" {
		t.Fatalf("expected first-seen display name, got %q", n.Name)
	}
	// "Acme" from suffix stripping, "ACME" is the same alias and is merged.
	if !reflect.DeepEqual(n.Aliases, []string{"Acme"}) {
		t.Fatalf("unexpected aliases %v", n.Aliases)
	}
	if got := len(s.Nodes(common.NodeCompany)); got != 1 {
		t.Fatalf("expected 1 company, got %d", got)
	}
}

func TestUpsertNodeRejectsInvalidInput(t *testing.T) {
	s := New()

	if _, err := s.UpsertNode("Person", "Bob", common.NodeAttrs{}); !errors.Is(err, ErrInvalidType) {
		t.Fatalf("expected ErrInvalidType, got %v", err)
	}
	if _, err := s.UpsertNode(common.NodeMarket, "  ", common.NodeAttrs{}); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}
	if _, err := s.UpsertNode(common.NodeProduct, "Widget", common.NodeAttrs{}); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("expected ErrInvalidName for ownerless product, got %v", err)
	}
	if st := s.Stats(); st.Nodes != 0 {
		t.Fatalf("expected empty store, got %d nodes", st.Nodes)
	}
}

func TestProductIdentityIncludesOwner(t *testing.T) {
	s := New()

	a, err := s.UpsertNode(common.NodeProduct, "Search", common.NodeAttrs{Owner: "Alpha"})
	if err != nil {
		t.Fatalf("UpsertNode: %v", err)
	}
	b, err := s.UpsertNode(common.NodeProduct, "search", common.NodeAttrs{Owner: "Beta"})
	if err != nil {
		t.Fatalf("UpsertNode: %v", err)
	}
	if a == b {
		t.Fatalf("products of different owners must differ, both %q", a)
	}
	if a != "product:alpha/search" {
		t.Fatalf("unexpected id %q", a)
	}
	n, _ := s.Node(a)
	if n.Owner != "company:alpha" {
		t.Fatalf("unexpected owner %q", n.Owner)
	}
	if _, ok := s.FindProduct("SEARCH", "beta"); !ok {
		t.Fatal("FindProduct did not find beta's product")
	}
	if got, _ := s.FindByName(common.NodeProduct, "search"); got.ID != a {
		t.Fatalf("FindByName should return lowest id, got %q", got.ID)
	}
}

func TestProductIDsEscapeSeparator(t *testing.T) {
	s := New()

	a, err := s.UpsertNode(common.NodeProduct, "c", common.NodeAttrs{Owner: "a/b"})
	if err != nil {
		t.Fatalf("UpsertNode: %v", err)
	}
	b, err := s.UpsertNode(common.NodeProduct, "b/c", common.NodeAttrs{Owner: "a"})
	if err != nil {
		t.Fatalf("UpsertNode: %v", err)
	}
	if a == b {
		t.Fatalf("distinct products share id %q", a)
	}
	if a != "product:a%2Fb/c" || b != "product:a/b%2Fc" {
		t.Fatalf("unexpected ids %q and %q", a, b)
	}
	if got, ok := s.FindByName(common.NodeProduct, "B/C"); !ok || got.ID != b {
		t.Fatalf("FindByName = %+v, %v", got, ok)
	}
	if st := s.Stats(); st.NodesByType[common.NodeProduct] != 2 {
		t.Fatalf("expected 2 products, got %+v", st)
	}
}

func TestCompanyAliasesResolveToCompany(t *testing.T) {
	s := New()
	globex, err := s.UpsertNode(common.NodeCompany, "Globex Corp", common.NodeAttrs{Aliases: []string{"GX"}})
	if err != nil {
		t.Fatalf("UpsertNode: %v", err)
	}

	for _, name := range []string{"Globex", "gx"} {
		id, err := s.UpsertNode(common.NodeCompany, name, common.NodeAttrs{Role: common.RoleCompetitor})
		if err != nil || id != globex {
			t.Fatalf("UpsertNode(%q) = %q, %v; want %q", name, id, err, globex)
		}
	}
	if got, ok := s.FindByName(common.NodeCompany, "GX"); !ok || got.ID != globex || got.Role != common.RoleCompetitor {
		t.Fatalf("FindByName = %+v, %v", got, ok)
	}

	res, err := s.Apply(context.Background(), []common.Mutation{
		{Kind: common.MutationUpsertNode, NodeType: common.NodeMarket, Name: "Cloud"},
		{Kind: common.MutationUpsertNode, NodeType: common.NodeProduct, Name: "Drive", Attrs: common.NodeAttrs{Owner: "globex"}},
		{Kind: common.MutationUpsertEdge, EdgeType: common.EdgeOperatesIn, From: "Globex", To: "Cloud"},
		{Kind: common.MutationUpsertEdge, EdgeType: common.EdgeHasProduct, From: "GX", To: "Drive"},
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if res.NodesCreated != 2 || res.EdgesCreated != 2 || res.Rejected != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
	if got := s.Stats().NodesByType[common.NodeCompany]; got != 1 {
		t.Fatalf("expected 1 company, got %d", got)
	}
	if !s.HasEdge(common.EdgeOperatesIn, globex, "market:cloud") || !s.HasEdge(common.EdgeHasProduct, globex, "product:globex corp/drive") {
		t.Fatalf("edges not attached to %s: %+v", globex, s.Snapshot().Edges)
	}
}

func TestConcurrentUpsertSameName(t *testing.T) {
	s := New()
	names := []string{"  Cloud ", "cLOUD", "Cloud", "CLOUD  "}

	ids := make([]string, 64)
	var wg sync.WaitGroup
	for i := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			name := names[i%len(names)]
			if i%2 == 1 {
				if _, err := s.Apply(context.Background(), []common.Mutation{
					{Kind: common.MutationUpsertNode, NodeType: common.NodeMarket, Name: name},
				}); err != nil {
					t.Errorf("Apply: %v", err)
				}
				return
			}
			id, err := s.UpsertNode(common.NodeMarket, name, common.NodeAttrs{})
			if err != nil {
				t.Errorf("UpsertNode: %v", err)
			}
			ids[i] = id
		}()
	}
	wg.Wait()

	for i := 0; i < len(ids); i += 2 {
		if ids[i] != "market:cloud" {
			t.Fatalf("goroutine %d got id %q", i, ids[i])
		}
	}
	if st := s.Stats(); st.Nodes != 1 {
		t.Fatalf("expected 1 node, got %+v", st)
	}
}

func TestTypeConflictKeepsFirstSeen(t *testing.T) {
	mem := memory.NewMemoryLogger()
	logger.Init(mem)
	defer logger.Init()

	s := New()
	first, err := s.UpsertNode(common.NodeCompany, "Acme", common.NodeAttrs{})
	if err != nil {
		t.Fatalf("UpsertNode: %v", err)
	}

	id, err := s.UpsertNode(common.NodeMarket, "ACME", common.NodeAttrs{})
	if !errors.Is(err, ErrTypeConflict) {
		t.Fatalf("expected ErrTypeConflict, got %v", err)
	}
	var conflict *ConflictError
	if !errors.As(err, &conflict) || conflict.Existing != common.NodeCompany {
		t.Fatalf("expected ConflictError naming Company, got %v", err)
	}
	if id != first {
		t.Fatalf("expected existing id %q, got %q", first, id)
	}

	res, err := s.Apply(context.Background(), []common.Mutation{
		{Kind: common.MutationUpsertNode, NodeType: common.NodeProduct, Name: "acme", Attrs: common.NodeAttrs{Owner: "Globex"}},
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if res.Conflicts != 1 || res.NodesCreated != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
	if !mem.Contains("warn", "Name conflict") {
		t.Fatal("expected conflict to be logged")
	}
	if got := s.Stats().NodesByType[common.NodeMarket]; got != 0 {
		t.Fatalf("expected no market nodes, got %d", got)
	}
}

func TestSingleSelfCompany(t *testing.T) {
	s := New()
	if _, err := s.UpsertNode(common.NodeCompany, "Acme", common.NodeAttrs{Role: common.RoleSelf}); err != nil {
		t.Fatalf("UpsertNode: %v", err)
	}
	// Re-asserting the same self is fine, a different one is not.
	if _, err := s.UpsertNode(common.NodeCompany, "acme", common.NodeAttrs{Role: common.RoleSelf}); err != nil {
		t.Fatalf("UpsertNode: %v", err)
	}
	if _, err := s.UpsertNode(common.NodeCompany, "Globex", common.NodeAttrs{Role: common.RoleSelf}); !errors.Is(err, ErrSelfExists) {
		t.Fatalf("expected ErrSelfExists, got %v", err)
	}
	// Self is never downgraded.
	if _, err := s.UpsertNode(common.NodeCompany, "Acme", common.NodeAttrs{Role: common.RoleCompetitor}); err != nil {
		t.Fatalf("UpsertNode: %v", err)
	}
	self, ok := s.Self()
	if !ok || self.ID != "company:acme" || self.Role != common.RoleSelf {
		t.Fatalf("unexpected self %+v", self)
	}
}

func TestUpsertEdge(t *testing.T) {
	s := New()
	acme, _ := s.UpsertNode(common.NodeCompany, "Acme", common.NodeAttrs{})
	globex, _ := s.UpsertNode(common.NodeCompany, "Globex", common.NodeAttrs{})
	market, _ := s.UpsertNode(common.NodeMarket, "Cloud", common.NodeAttrs{})

	created, err := s.UpsertEdge(common.EdgeCompetesWith, globex, acme)
	if err != nil || !created {
		t.Fatalf("expected new edge, got created=%v err=%v", created, err)
	}
	created, err = s.UpsertEdge(common.EdgeCompetesWith, acme, globex)
	if err != nil || created {
		t.Fatalf("reverse COMPETES_WITH must be the same edge, got created=%v err=%v", created, err)
	}
	snap := s.Snapshot()
	if len(snap.Edges) != 1 || snap.Edges[0].From != acme || snap.Edges[0].To != globex {
		t.Fatalf("expected canonical edge acme->globex, got %+v", snap.Edges)
	}

	if _, err := s.UpsertEdge(common.EdgeOperatesIn, market, acme); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
	if _, err := s.UpsertEdge(common.EdgeCompetesWith, acme, acme); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected self loop rejection, got %v", err)
	}
	if _, err := s.UpsertEdge(common.EdgeOperatesIn, acme, "market:nowhere"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.UpsertEdge("OWNS", acme, globex); !errors.Is(err, ErrInvalidType) {
		t.Fatalf("expected ErrInvalidType, got %v", err)
	}
}

func TestNeighbors(t *testing.T) {
	s := New()
	if _, err := s.Apply(context.Background(), seedMutations()); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	tests := []struct {
		name string
		id   string
		typ  common.EdgeType
		dir  Direction
		want []string
	}{
		{"competes out from target side", "company:globex", common.EdgeCompetesWith, Out, []string{"company:acme inc"}},
		{"competes in from source side", "company:acme inc", common.EdgeCompetesWith, In, []string{"company:globex"}},
		{"operates out", "company:globex", common.EdgeOperatesIn, Out, []string{"market:cloud storage"}},
		{"operates in reverse", "market:cloud storage", common.EdgeOperatesIn, In, []string{"company:globex"}},
		{"operates out from market is empty", "market:cloud storage", common.EdgeOperatesIn, Out, []string{}},
		{"all types both", "company:globex", "", Both, []string{"company:acme inc", "market:cloud storage", "product:globex/globex drive"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Neighbors(tt.id, tt.typ, tt.dir)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Neighbors = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSharedTargets(t *testing.T) {
	s := New()
	for _, name := range []string{"Acme", "Globex", "Initech", "Umbrella"} {
		if _, err := s.UpsertNode(common.NodeCompany, name, common.NodeAttrs{}); err != nil {
			t.Fatalf("UpsertNode: %v", err)
		}
	}
	for _, name := range []string{"Cloud", "Edge", "Retail"} {
		if _, err := s.UpsertNode(common.NodeMarket, name, common.NodeAttrs{}); err != nil {
			t.Fatalf("UpsertNode: %v", err)
		}
	}
	edges := []common.Edge{
		{Type: common.EdgeOperatesIn, From: "company:acme", To: "market:cloud"},
		{Type: common.EdgeOperatesIn, From: "company:acme", To: "market:edge"},
		{Type: common.EdgeOperatesIn, From: "company:globex", To: "market:edge"},
		{Type: common.EdgeOperatesIn, From: "company:globex", To: "market:cloud"},
		{Type: common.EdgeOperatesIn, From: "company:globex", To: "market:retail"},
		{Type: common.EdgeCompetesWith, From: "company:acme", To: "company:initech"},
		{Type: common.EdgeCompetesWith, From: "company:globex", To: "company:initech"},
		{Type: common.EdgeCompetesWith, From: "company:acme", To: "company:globex"},
		{Type: common.EdgeCompetesWith, From: "company:umbrella", To: "company:acme"},
	}
	for _, e := range edges {
		if _, err := s.UpsertEdge(e.Type, e.From, e.To); err != nil {
			t.Fatalf("UpsertEdge %+v: %v", e, err)
		}
	}

	markets := s.SharedTargets("company:acme", "company:globex", common.EdgeOperatesIn)
	if !reflect.DeepEqual(markets, []string{"market:cloud", "market:edge"}) {
		t.Fatalf("unexpected shared markets %v", markets)
	}
	rivals := s.SharedTargets("company:acme", "company:globex", common.EdgeCompetesWith)
	if !reflect.DeepEqual(rivals, []string{"company:initech"}) {
		t.Fatalf("unexpected shared competitors %v", rivals)
	}
	if got := s.SharedTargets("company:acme", "company:nobody", common.EdgeOperatesIn); len(got) != 0 {
		t.Fatalf("expected no shared targets, got %v", got)
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	s := New()
	first, err := s.Apply(context.Background(), seedMutations())
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if first.NodesCreated != 4 || first.EdgesCreated != 3 || first.Rejected != 0 {
		t.Fatalf("unexpected first result %+v", first)
	}
	once := s.Snapshot()

	second, err := s.Apply(context.Background(), seedMutations())
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if second.NodesCreated != 0 || second.EdgesCreated != 0 {
		t.Fatalf("second apply created data: %+v", second)
	}
	if !reflect.DeepEqual(once, s.Snapshot()) {
		t.Fatal("snapshot changed after re-applying the same mutations")
	}
}

func TestApplyCountsRejectedMutations(t *testing.T) {
	s := New()
	res, err := s.Apply(context.Background(), []common.Mutation{
		{Kind: common.MutationUpsertNode, NodeType: common.NodeCompany, Name: "Acme"},
		{Kind: common.MutationUpsertNode, NodeType: common.NodeMarket, Name: "Cloud"},
		{Kind: common.MutationUpsertEdge, EdgeType: common.EdgeOperatesIn, From: "Cloud", To: "Acme"},
		{Kind: common.MutationUpsertEdge, EdgeType: common.EdgeOperatesIn, From: "Acme", To: "Retail"},
		{Kind: common.MutationUpsertEdge, EdgeType: common.EdgeOperatesIn, From: "Acme", To: "Cloud"},
		{Kind: "delete_node", Name: "Acme"},
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	want := ApplyResult{NodesCreated: 2, EdgesCreated: 1, Rejected: 3}
	if res != want {
		t.Fatalf("Apply = %+v, want %+v", res, want)
	}
}

func TestApplyCancelledContextWritesNothing(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Apply(ctx, seedMutations()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if st := s.Stats(); st.Nodes != 0 || st.Edges != 0 {
		t.Fatalf("expected empty store, got %+v", st)
	}
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	s := New()
	if _, err := s.Apply(context.Background(), seedMutations()); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	snap := s.Snapshot()
	for i := range snap.Nodes {
		if len(snap.Nodes[i].Aliases) > 0 {
			snap.Nodes[i].Aliases[0] = "mutated"
		}
	}
	for _, n := range s.Nodes(common.NodeCompany) {
		for _, a := range n.Aliases {
			if a == "mutated" {
				t.Fatal("snapshot shares alias storage with the store")
			}
		}
	}
}
