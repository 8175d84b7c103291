package responder

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oduo-labs/responder-cli/internal/model"
	"github.com/oduo-labs/responder-cli/internal/store"
)

type stubDrafter struct {
	reply   string
	err     error
	system  string
	history []model.Exchange
}

func (d *stubDrafter) Draft(_ context.Context, system string, history []model.Exchange) (string, error) {
	d.system = system
	d.history = history
	return d.reply, d.err
}

type stubSender struct {
	err      error
	phone    string
	content  string
	convID   int
	messages int
}

func (s *stubSender) SendMessage(_ context.Context, phone, _, content string) error {
	s.phone, s.content = phone, content
	s.messages++
	return s.err
}

func (s *stubSender) SendPair(_ context.Context, phone, _, first, _ string) error {
	s.phone, s.content = phone, first
	s.messages += 2
	return s.err
}

func (s *stubSender) ReplyToConversation(_ context.Context, conversationID int, content string) error {
	s.convID, s.content = conversationID, content
	s.messages++
	return s.err
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "responder.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func newTestService(t *testing.T, st store.Store, d *stubDrafter, snd *stubSender) *Service {
	t.Helper()
	return NewService(st, d, snd, DefaultPersona(), Options{
		BookingLink: "https://cal.example/diagnostico",
	})
}

func seedLead(t *testing.T, st store.Store, lead *model.Lead) {
	t.Helper()
	require.NoError(t, st.SaveLead(context.Background(), lead))
}

func TestService_Process_CreatesInboundLead(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newTestService(t, st, &stubDrafter{reply: "Oi Carlos!"}, nil)

	res, err := svc.Process(ctx, ProcessRequest{
		Phone:      "+55 (11) 91234-5678",
		Message:    "Oi, tudo bem?",
		SenderName: "Carlos",
	})
	require.NoError(t, err)
	assert.Equal(t, "processed", res.Status)
	assert.Equal(t, "5511912345678", res.Phone)
	assert.False(t, res.ShouldSendLink)

	lead, err := st.GetLead(ctx, "5511912345678")
	require.NoError(t, err)
	require.NotNil(t, lead)
	assert.Equal(t, "Carlos", lead.Name)
	assert.Equal(t, "inbound_landing", lead.CampaignID)
	assert.Equal(t, "Lead inbound - veio da landing page", lead.Notes)
	assert.Equal(t, model.StatusEmConversa, lead.Status)
}

func TestService_Process_InboundLeadDefaultName(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newTestService(t, st, &stubDrafter{reply: "Oi!"}, nil)

	_, err := svc.Process(ctx, ProcessRequest{Phone: "5511999990000", Message: "Oi, tudo bem?"})
	require.NoError(t, err)

	lead, err := st.GetLead(ctx, "5511999990000")
	require.NoError(t, err)
	require.NotNil(t, lead)
	assert.Equal(t, "Lead", lead.Name)
}

func TestService_Process_RejectsEmptyInput(t *testing.T) {
	svc := newTestService(t, newTestStore(t), &stubDrafter{}, nil)

	_, err := svc.Process(context.Background(), ProcessRequest{Phone: "abc", Message: "oi tudo bem"})
	assert.Error(t, err)

	_, err = svc.Process(context.Background(), ProcessRequest{Phone: "5511999990000"})
	assert.Error(t, err)
}

func TestService_Process_OutboundInterestSendsLink(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	seedLead(t, st, &model.Lead{
		Phone: "5511988880000", Name: "Paula", CampaignID: "reativacao_agosto",
		Status: model.StatusContatado, Phase: model.PhaseRapport,
	})
	svc := newTestService(t, st, &stubDrafter{reply: "Show!"}, nil)

	res, err := svc.Process(ctx, ProcessRequest{Phone: "5511988880000", Message: "Tenho interesse, pode marcar"})
	require.NoError(t, err)
	assert.True(t, res.ShouldSendLink)
	assert.Equal(t, model.IntentInterest, res.Intent)

	lead, err := st.GetLead(ctx, "5511988880000")
	require.NoError(t, err)
	assert.Equal(t, model.StatusInteressado, lead.Status)
}

func TestService_Process_InboundGatesLinkOnFullFacts(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	seedLead(t, st, &model.Lead{
		Phone: "5511977770000", Name: "Rafa", CampaignID: "inbound_landing",
		Status: model.StatusEmConversa, Phase: model.PhaseProblema,
		Facts: model.Facts{Empresa: "locadora", Dor: "parado"},
	})
	svc := newTestService(t, st, &stubDrafter{reply: "Bora!"}, nil)

	res, err := svc.Process(ctx, ProcessRequest{Phone: "5511977770000", Message: "Tenho interesse, pode marcar"})
	require.NoError(t, err)
	assert.Equal(t, model.IntentInterest, res.Intent)
	assert.False(t, res.ShouldSendLink, "inbound needs 4/4 facts before the link")

	seedLead(t, st, &model.Lead{
		Phone: "5511977770000", Name: "Rafa", CampaignID: "inbound_landing",
		Status: model.StatusEmConversa, Phase: model.PhaseNecessidade,
		Facts: model.Facts{Empresa: "locadora", Dor: "parado", Faturamento: "acima_50k", Socio: "dono_unico"},
	})
	res, err = svc.Process(ctx, ProcessRequest{Phone: "5511977770000", Message: "Tudo certo"})
	require.NoError(t, err)
	assert.True(t, res.ShouldSendLink)
}

func TestService_Process_FallbackOnDraftFailure(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	seedLead(t, st, &model.Lead{
		Phone: "5511966660000", Name: "Bruno", Notes: "frota parada",
		CampaignID: "reativacao_agosto", Status: model.StatusContatado, Phase: model.PhaseRapport,
	})
	svc := newTestService(t, st, &stubDrafter{err: eris.New("anthropic: rate limited")}, nil)

	res, err := svc.Process(ctx, ProcessRequest{Phone: "5511966660000", Message: "Tudo certo"})
	require.NoError(t, err)
	assert.Contains(t, res.Reply, "Bruno")
}

func TestService_Process_DrafterSeesHistoryPlusIncoming(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	seedLead(t, st, &model.Lead{
		Phone: "5511955550000", Name: "Ana", CampaignID: "reativacao_agosto",
		Status: model.StatusEmConversa, Phase: model.PhaseSituacao,
		History: []model.Exchange{
			{Role: model.RoleLead, Content: "Oi", Timestamp: time.Now().UTC()},
			{Role: model.RoleBot, Content: "E ai Ana!", Timestamp: time.Now().UTC()},
		},
	})
	d := &stubDrafter{reply: "Boa!"}
	svc := newTestService(t, st, d, nil)

	_, err := svc.Process(ctx, ProcessRequest{Phone: "5511955550000", Message: "Tudo certo"})
	require.NoError(t, err)
	require.Len(t, d.history, 3)
	assert.Equal(t, model.RoleLead, d.history[2].Role)
	assert.Equal(t, "Tudo certo", d.history[2].Content)
	assert.Contains(t, d.system, "Joao")
}

func TestService_Process_DefaultNicheReachesPrompt(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	seedLead(t, st, &model.Lead{
		Phone: "5511955551111", Name: "Davi", CampaignID: "cold_spin_autopecas",
		Status: model.StatusContatado, Phase: model.PhaseRapport,
	})
	d := &stubDrafter{reply: "Boa!"}
	svc := NewService(st, d, nil, DefaultPersona(), Options{
		BookingLink:  "https://cal.example/diagnostico",
		DefaultNiche: "autopecas",
	})

	_, err := svc.Process(ctx, ProcessRequest{Phone: "5511955551111", Message: "Tudo certo"})
	require.NoError(t, err)
	assert.Contains(t, d.system, "Quantas consultas de peca voces recebem por dia?")
}

func TestService_Process_NegativeStatus(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	seedLead(t, st, &model.Lead{
		Phone: "5511944440000", Name: "Out", CampaignID: "reativacao_agosto",
		Status: model.StatusContatado, Phase: model.PhaseRapport,
	})
	seedLead(t, st, &model.Lead{
		Phone: "5511933330000", Name: "In", CampaignID: "inbound_landing",
		Status: model.StatusEmConversa, Phase: model.PhaseSituacao,
	})
	svc := newTestService(t, st, &stubDrafter{reply: "Entendi!"}, nil)

	_, err := svc.Process(ctx, ProcessRequest{Phone: "5511944440000", Message: "Nao tenho interesse"})
	require.NoError(t, err)
	lead, err := st.GetLead(ctx, "5511944440000")
	require.NoError(t, err)
	assert.Equal(t, model.StatusPerdido, lead.Status)

	_, err = svc.Process(ctx, ProcessRequest{Phone: "5511933330000", Message: "Nao tenho interesse"})
	require.NoError(t, err)
	lead, err = st.GetLead(ctx, "5511933330000")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCurioso, lead.Status, "inbound refusal parks as curioso")
}

func TestService_Process_AutoSendToConversation(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	seedLead(t, st, &model.Lead{
		Phone: "5511922220000", Name: "Lia", CampaignID: "reativacao_agosto",
		Status: model.StatusContatado, Phase: model.PhaseRapport,
	})
	snd := &stubSender{}
	svc := newTestService(t, st, &stubDrafter{reply: "Show Lia!"}, snd)

	res, err := svc.Process(ctx, ProcessRequest{
		Phone: "5511922220000", Message: "Tudo certo", ConversationID: 42, AutoSend: true,
	})
	require.NoError(t, err)
	assert.True(t, res.Sent)
	assert.Empty(t, res.SendError)
	assert.Equal(t, 42, snd.convID)
	assert.Equal(t, "Show Lia!", snd.content)
}

func TestService_Process_AutoSendWithoutConversation(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	seedLead(t, st, &model.Lead{
		Phone: "5511922220001", Name: "Gil", CampaignID: "reativacao_agosto",
		Status: model.StatusContatado, Phase: model.PhaseRapport,
	})
	snd := &stubSender{}
	svc := newTestService(t, st, &stubDrafter{reply: "Opa Gil!"}, snd)

	res, err := svc.Process(ctx, ProcessRequest{Phone: "5511922220001", Message: "Tudo certo", AutoSend: true})
	require.NoError(t, err)
	assert.True(t, res.Sent)
	assert.Equal(t, "5511922220001", snd.phone)
}

func TestService_Process_SendFailureIsReported(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	seedLead(t, st, &model.Lead{
		Phone: "5511922220002", Name: "Eva", CampaignID: "reativacao_agosto",
		Status: model.StatusContatado, Phase: model.PhaseRapport,
	})
	snd := &stubSender{err: eris.New("chatwoot: status 429")}
	svc := newTestService(t, st, &stubDrafter{reply: "Oi Eva!"}, snd)

	res, err := svc.Process(ctx, ProcessRequest{Phone: "5511922220002", Message: "Tudo certo", AutoSend: true})
	require.NoError(t, err, "delivery failure must not fail the pipeline")
	assert.False(t, res.Sent)
	assert.Contains(t, res.SendError, "429")
	assert.NotEmpty(t, res.Reply)
}

func TestService_Qualify_NoContext(t *testing.T) {
	svc := newTestService(t, newTestStore(t), &stubDrafter{}, nil)

	res, err := svc.Qualify(context.Background(), QualifyRequest{
		Phone: "5511900000000", IncomingMessage: "oi", AIResponse: "oi!",
	})
	require.NoError(t, err)
	assert.Equal(t, "no_context", res.Status)
}

func TestService_Qualify_ExtractsAndPersists(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	seedLead(t, st, &model.Lead{
		Phone: "5511911110000", Name: "Duda", CampaignID: "inbound_landing",
		Status: model.StatusEmConversa, Phase: model.PhaseRapport,
	})
	svc := newTestService(t, st, &stubDrafter{}, nil)

	res, err := svc.Qualify(ctx, QualifyRequest{
		Phone:           "5511911110000",
		IncomingMessage: "Tenho uma locadora, as maquinas estao paradas",
		AIResponse:      "Entendi! E como voces conseguem clientes hoje?",
	})
	require.NoError(t, err)
	assert.Equal(t, "qualified", res.Status)
	assert.Equal(t, "locadora", res.Facts.Empresa)
	assert.Equal(t, "parada", res.Facts.Dor)
	assert.Equal(t, 2, res.Progress)
	assert.Equal(t, 1, res.TotalExchanges)
	assert.Equal(t, model.PhaseSituacao, res.Phase)
	assert.Contains(t, res.Missing, "faturamento")
	assert.False(t, res.IsOuro)
	assert.False(t, res.ShouldSendCalendar)

	lead, err := st.GetLead(ctx, "5511911110000")
	require.NoError(t, err)
	assert.Equal(t, "locadora", lead.Facts.Empresa)
	assert.Equal(t, model.PhaseSituacao, lead.Phase)
	assert.Len(t, lead.History, 2)
	assert.Equal(t, model.RoleBot, lead.History[1].Role)
}

func TestService_Qualify_OuroQualifiesLead(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	seedLead(t, st, &model.Lead{
		Phone: "5511911110001", Name: "Tom", CampaignID: "reativacao_agosto",
		Status: model.StatusEmConversa, Phase: model.PhaseNecessidade,
		Facts: model.Facts{Empresa: "locadora", Dor: "parado", Faturamento: "acima_50k"},
	})
	svc := newTestService(t, st, &stubDrafter{}, nil)

	res, err := svc.Qualify(ctx, QualifyRequest{
		Phone:           "5511911110001",
		IncomingMessage: "Sou o dono, decido sozinho",
		AIResponse:      "Perfeito, vou te mandar o link!",
	})
	require.NoError(t, err)
	assert.Equal(t, model.PhaseOuro, res.Phase)
	assert.Equal(t, 4, res.Progress)
	assert.True(t, res.IsOuro)
	assert.True(t, res.ShouldSendCalendar)

	lead, err := st.GetLead(ctx, "5511911110001")
	require.NoError(t, err)
	assert.Equal(t, model.StatusQualificado, lead.Status)
}

func TestService_Qualify_EarlyRefusalParksCurioso(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	seedLead(t, st, &model.Lead{
		Phone: "5511911110002", Name: "Zeca", CampaignID: "reativacao_agosto",
		Status: model.StatusEmConversa, Phase: model.PhaseRapport,
	})
	svc := newTestService(t, st, &stubDrafter{}, nil)

	res, err := svc.Qualify(ctx, QualifyRequest{
		Phone:           "5511911110002",
		IncomingMessage: "Nao quero, obrigado",
		AIResponse:      "Sem problemas, sucesso ai!",
		Intent:          model.IntentNegative,
	})
	require.NoError(t, err)
	assert.Equal(t, model.PhaseCurioso, res.Phase)

	lead, err := st.GetLead(ctx, "5511911110002")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCurioso, lead.Status)
}
